// Package caption renders the HTML texts posted next to covers and tracks.
package caption

import (
	"fmt"
	"html"
	"strings"

	"qobuz-relay/internal/core/downloader"
)

// User is the person who asked for a download.
type User struct {
	ID   int64
	Name string
}

// Mention links to the user's profile.
func Mention(u User) string {
	name := u.Name
	if name == "" {
		name = "user"
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.ID, html.EscapeString(name))
}

// AlbumDetails describes an album for its cover post. quality is appended
// when not empty and mention adds the requesting user.
func AlbumDetails(meta downloader.TrackMetadata, quality string, mention *User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎶 <b>Title :</b> %s\n", html.EscapeString(meta.Album))
	fmt.Fprintf(&b, "👤 <b>Artist :</b> %s\n", html.EscapeString(meta.AlbumArtist))
	fmt.Fprintf(&b, "🗓 <b>Release Date :</b> %s\n", html.EscapeString(meta.Date))
	fmt.Fprintf(&b, "🔢 <b>Total Tracks :</b> %d\n", meta.TotalTracks)
	if quality != "" {
		fmt.Fprintf(&b, "💫 <b>Quality :</b> %s\n", html.EscapeString(quality))
	}
	if mention != nil {
		fmt.Fprintf(&b, "\n<b>Requested by :</b> %s", Mention(*mention))
	}
	return b.String()
}

// Track is the caption of a single uploaded track; empty unless mentioning.
func Track(mention *User) string {
	if mention == nil {
		return ""
	}
	return "<b>Requested by :</b> " + Mention(*mention)
}

// Progress is the status line edited while a request runs.
func Progress(name string, done, total int) string {
	return fmt.Sprintf("⏳ <b>%s</b>\nUploaded %d/%d", html.EscapeString(name), done, total)
}

// Finished summarises a request.
func Finished(name string, done, failed int) string {
	s := fmt.Sprintf("✅ <b>%s</b>\nUploaded %d track(s)", html.EscapeString(name), done)
	if failed > 0 {
		s += fmt.Sprintf(", %d unavailable", failed)
	}
	return s
}
