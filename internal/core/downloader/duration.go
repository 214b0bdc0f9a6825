package downloader

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-flac/go-flac"
	"github.com/llehouerou/go-mp3"
)

// ReadDuration returns the playing time of a FLAC or MP3 file in whole
// seconds, rounded to nearest.
func ReadDuration(path string) (int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return flacDuration(path)
	case ".mp3":
		return mp3Duration(path)
	default:
		return 0, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func flacDuration(path string) (int, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to parse FLAC file: %w", err)
	}
	for _, meta := range f.Meta {
		if meta.Type != flac.StreamInfo {
			continue
		}
		return streamInfoDuration(meta.Data)
	}
	return 0, fmt.Errorf("no STREAMINFO block in %s", path)
}

// streamInfoDuration reads the 20-bit sample rate and 36-bit total sample
// count of a STREAMINFO block.
func streamInfoDuration(data []byte) (int, error) {
	if len(data) < 18 {
		return 0, fmt.Errorf("STREAMINFO block too short: %d bytes", len(data))
	}
	sampleRate := int64(data[10])<<12 | int64(data[11])<<4 | int64(data[12])>>4
	if sampleRate == 0 {
		return 0, fmt.Errorf("invalid FLAC sample rate")
	}
	totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])
	return int(math.Round(float64(totalSamples) / float64(sampleRate))), nil
}

func mp3Duration(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, fmt.Errorf("failed to decode MP3: %w", err)
	}
	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return 0, fmt.Errorf("invalid MP3 sample rate")
	}
	samples := decoder.SampleCount()
	if samples < 0 {
		samples = 0
	}
	return int(math.Round(float64(samples) / float64(sampleRate))), nil
}
