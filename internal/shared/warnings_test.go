package shared

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarningCollector(t *testing.T) {
	wc := NewWarningCollector(true)
	assert.False(t, wc.HasWarnings())

	wc.AddAmbiguousTitleWarning("Daft Punk", "Alive (1997")
	wc.AddTrackUnavailableWarning("Gone", "9", "no full-length stream")
	wc.AddTrackUnavailableWarning("Also Gone", "10", "no full-length stream")
	wc.AddUnmatchedTrackWarning("Nobody", "Nothing")

	assert.True(t, wc.HasWarnings())
	assert.Equal(t, 4, wc.GetWarningCount())
	grouped := wc.GetWarningsByType()
	assert.Len(t, grouped[TrackUnavailableWarning], 2)
	assert.Equal(t, "Nobody - Nothing", grouped[UnmatchedTrackWarning][0].Context)
	wc.PrintSummary()
}

func TestWarningCollectorDisabled(t *testing.T) {
	wc := NewWarningCollector(false)
	wc.AddTrackSkippedWarning("/music/a.flac")
	assert.False(t, wc.HasWarnings())
}

func TestWarningCollectorConcurrent(t *testing.T) {
	wc := NewWarningCollector(true)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wc.AddCoverArtDownloadWarning("Discovery", "timeout")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, wc.GetWarningCount())
}
