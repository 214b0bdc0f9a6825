package caption

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"qobuz-relay/internal/core/downloader"
)

func TestAlbumDetails(t *testing.T) {
	meta := downloader.TrackMetadata{Album: "Random Access Memories", AlbumArtist: "Daft Punk", Date: "2013-05-17", TotalTracks: 13}

	got := AlbumDetails(meta, "", nil)
	assert.Equal(t, "🎶 <b>Title :</b> Random Access Memories\n👤 <b>Artist :</b> Daft Punk\n🗓 <b>Release Date :</b> 2013-05-17\n🔢 <b>Total Tracks :</b> 13\n", got)

	got = AlbumDetails(meta, "24B - 88.2", &User{ID: 42, Name: "Ann"})
	assert.Contains(t, got, "💫 <b>Quality :</b> 24B - 88.2\n")
	assert.Contains(t, got, `<a href="tg://user?id=42">Ann</a>`)
}

func TestEscaping(t *testing.T) {
	meta := downloader.TrackMetadata{Album: "Tom & Jerry <Live>", AlbumArtist: "A&B"}
	got := AlbumDetails(meta, "", nil)
	assert.Contains(t, got, "Tom &amp; Jerry &lt;Live&gt;")
	assert.Contains(t, got, "A&amp;B")
	assert.Equal(t, `<a href="tg://user?id=1">&lt;script&gt;</a>`, Mention(User{ID: 1, Name: "<script>"}))
}

func TestTrackAndProgress(t *testing.T) {
	assert.Empty(t, Track(nil))
	assert.Equal(t, `<b>Requested by :</b> <a href="tg://user?id=7">user</a>`, Track(&User{ID: 7}))
	assert.Equal(t, "⏳ <b>Mix</b>\nUploaded 2/5", Progress("Mix", 2, 5))
	assert.Equal(t, "✅ <b>Mix</b>\nUploaded 4 track(s), 1 unavailable", Finished("Mix", 4, 1))
}
