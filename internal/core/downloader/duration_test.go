package downloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamInfo builds a STREAMINFO block for 44.1 kHz, 16-bit stereo audio
// holding totalSamples samples.
func streamInfo(sampleRate int, totalSamples int64) []byte {
	data := make([]byte, 34)
	data[10] = byte(sampleRate >> 12)
	data[11] = byte(sampleRate >> 4)
	// 4 low bits of the rate, 3 bits channels-1 (1), first bit of bps-1 (15 -> 0)
	data[12] = byte(sampleRate&0x0F)<<4 | 0x01<<1
	// remaining 4 bits of bps-1 (15 -> 1111) and top 4 bits of the sample count
	data[13] = 0xF0 | byte(totalSamples>>32)&0x0F
	data[14] = byte(totalSamples >> 24)
	data[15] = byte(totalSamples >> 16)
	data[16] = byte(totalSamples >> 8)
	data[17] = byte(totalSamples)
	return data
}

func TestStreamInfoDuration(t *testing.T) {
	seconds, err := streamInfoDuration(streamInfo(44100, 44100*301))
	require.NoError(t, err)
	assert.Equal(t, 301, seconds)

	seconds, err = streamInfoDuration(streamInfo(192000, 192000*90+96000))
	require.NoError(t, err)
	assert.Equal(t, 91, seconds)

	_, err = streamInfoDuration(streamInfo(0, 100))
	assert.Error(t, err)

	_, err = streamInfoDuration([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestReadDurationRejectsUnknownExtension(t *testing.T) {
	_, err := ReadDuration("track.ogg")
	assert.Error(t, err)
}
