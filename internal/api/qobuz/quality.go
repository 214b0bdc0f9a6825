package qobuz

import (
	"fmt"

	"qobuz-relay/internal/shared"
)

// Format ids accepted by track/getFileUrl.
const (
	QualityMP3      = 5  // MP3 320 kbps
	QualityCD       = 6  // FLAC 16-bit / 44.1 kHz
	QualityHiRes96  = 7  // FLAC 24-bit up to 96 kHz
	QualityHiRes192 = 27 // FLAC 24-bit above 96 kHz
)

const restrictedByAvailability = "FormatRestrictedByFormatAvailability"

// ValidQuality reports whether q is a known format id.
func ValidQuality(q int) bool {
	switch q {
	case QualityMP3, QualityCD, QualityHiRes96, QualityHiRes192:
		return true
	}
	return false
}

// Extension is the file extension of files delivered in quality q.
func Extension(quality int) string {
	if quality == QualityMP3 {
		return "mp3"
	}
	return "flac"
}

// QualityLabel describes the format actually delivered, e.g. "24B - 96".
// It is empty for MP3 and marked when the service downgraded the request.
func QualityLabel(quality int, file *shared.FileURL) string {
	if quality == QualityMP3 || file == nil {
		return ""
	}
	label := fmt.Sprintf("%dB - %s", file.BitDepth, shared.FormatSamplingRate(file.SamplingRate))
	for _, r := range file.Restrictions {
		if r.Code == restrictedByAvailability {
			return label + " (downgraded)"
		}
	}
	return label
}
