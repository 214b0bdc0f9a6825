package downloader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"qobuz-relay/internal/shared"
)

// TrackMetadata is everything written into a file's tags and shown in chat.
type TrackMetadata struct {
	Title        string
	Artist       string
	Album        string
	AlbumArtist  string
	CoverURL     string
	ThumbnailURL string
	TrackNumber  int
	DiscNumber   int
	TotalTracks  int
	TotalDiscs   int
	Date         string
	ISRC         string
	Genre        string
	Label        string
	Copyright    string
	UPC          string
	Composer     string
	Extension    string
	Duration     int // seconds
}

// Year returns the first four characters of Date.
func (m TrackMetadata) Year() string {
	if len(m.Date) >= 4 {
		return m.Date[:4]
	}
	return ""
}

// BuildMetadata merges a track with its album. When album is nil the
// track's embedded album object is used.
func BuildMetadata(track shared.Track, album *shared.Album, extension string) TrackMetadata {
	if album == nil {
		album = track.Album
	}

	meta := TrackMetadata{
		Title:       track.FullTitle(),
		TrackNumber: track.TrackNumber,
		DiscNumber:  track.MediaNumber,
		ISRC:        track.ISRC,
		Copyright:   track.Copyright,
		Extension:   extension,
		Duration:    track.Duration,
	}
	if track.Composer != nil {
		meta.Composer = track.Composer.Name
	}

	if album != nil {
		meta.Album = album.FullTitle()
		meta.AlbumArtist = album.ArtistName()
		meta.CoverURL = album.Image.Large
		meta.ThumbnailURL = album.Image.Thumbnail
		meta.TotalTracks = album.TracksCount
		meta.TotalDiscs = album.MediaCount
		meta.Date = album.ReleaseDateOriginal
		meta.UPC = album.UPC
		if album.Genre != nil {
			meta.Genre = album.Genre.Name
		}
		if album.Label != nil {
			meta.Label = album.Label.Name
		}
		if meta.Copyright == "" {
			meta.Copyright = album.Copyright
		}
	}

	meta.Artist = strings.Join(ParsePerformers(track.Performers), ", ")
	if meta.Artist == "" && track.Performer != nil {
		meta.Artist = track.Performer.Name
	}
	if meta.Artist == "" {
		meta.Artist = meta.AlbumArtist
	}
	if meta.AlbumArtist == "" {
		meta.AlbumArtist = meta.Artist
	}

	if meta.TrackNumber == 0 {
		meta.TrackNumber = 1
	}
	if meta.DiscNumber == 0 {
		meta.DiscNumber = 1
	}
	if meta.TotalDiscs == 0 {
		meta.TotalDiscs = 1
	}
	return meta
}

// ParsePerformers extracts the main and featured artists from a Qobuz
// performers credit such as
// "Daft Punk, MainArtist - Pharrell Williams, FeaturedArtist, Composer".
func ParsePerformers(performers string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, entry := range strings.Split(performers, " - ") {
		parts := strings.Split(entry, ",")
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		credited := false
		for _, role := range parts[1:] {
			switch strings.TrimSpace(role) {
			case "MainArtist", "FeaturedArtist":
				credited = true
			}
		}
		if credited && name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// WriteTags tags path according to its extension.
func WriteTags(path string, meta TrackMetadata, coverData []byte, warnings *shared.WarningCollector) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return WriteFLACTags(path, meta, coverData, warnings)
	case ".mp3":
		return WriteMP3Tags(path, meta, coverData)
	default:
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// WriteFLACTags replaces the Vorbis comment and picture blocks of a FLAC file.
func WriteFLACTags(filePath string, meta TrackMetadata, coverData []byte, warnings *shared.WarningCollector) error {
	f, err := flac.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	var kept []*flac.MetaDataBlock
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment && block.Type != flac.Picture {
			kept = append(kept, block)
		}
	}
	f.Meta = kept

	comment := flacvorbis.New()
	addField(comment, flacvorbis.FIELD_TITLE, meta.Title)
	addField(comment, flacvorbis.FIELD_ARTIST, meta.Artist)
	addField(comment, flacvorbis.FIELD_ALBUM, meta.Album)
	addField(comment, "ALBUMARTIST", meta.AlbumArtist)
	addField(comment, flacvorbis.FIELD_TRACKNUMBER, fmt.Sprintf("%d", meta.TrackNumber))
	if meta.TotalTracks > 0 {
		addField(comment, "TOTALTRACKS", fmt.Sprintf("%d", meta.TotalTracks))
	}
	addField(comment, "DISCNUMBER", fmt.Sprintf("%d", meta.DiscNumber))
	addField(comment, "TOTALDISCS", fmt.Sprintf("%d", meta.TotalDiscs))
	addField(comment, flacvorbis.FIELD_DATE, meta.Date)
	addField(comment, "YEAR", meta.Year())
	addField(comment, flacvorbis.FIELD_GENRE, meta.Genre)
	addField(comment, "COMPOSER", meta.Composer)
	addField(comment, flacvorbis.FIELD_ISRC, meta.ISRC)
	addField(comment, flacvorbis.FIELD_COPYRIGHT, meta.Copyright)
	addField(comment, "LABEL", meta.Label)
	addField(comment, "UPC", meta.UPC)
	addField(comment, "SOURCE", "Qobuz")

	vorbisCommentBlock := comment.Marshal()
	f.Meta = append(f.Meta, &vorbisCommentBlock)

	if err := addCoverArt(f, coverData); err != nil && warnings != nil {
		warnings.AddCoverArtMetadataWarning(fmt.Sprintf("%s - %s", meta.Artist, meta.Title), err.Error())
	}

	if err := f.Save(filePath); err != nil {
		return fmt.Errorf("failed to save FLAC file with metadata: %w", err)
	}
	return nil
}

// addField adds a field to vorbis comment only if value is not empty
func addField(comment *flacvorbis.MetaDataBlockVorbisComment, field, value string) {
	if value != "" {
		comment.Add(field, value)
	}
}

// addCoverArt adds cover art to the FLAC file
func addCoverArt(f *flac.File, coverData []byte) error {
	if len(coverData) == 0 {
		return nil
	}

	picture, err := flacpicture.NewFromImageData(
		flacpicture.PictureTypeFrontCover,
		"Front Cover",
		coverData,
		detectImageFormat(coverData),
	)
	if err != nil {
		return fmt.Errorf("failed to create picture metadata: %w", err)
	}

	pictureBlock := picture.Marshal()
	f.Meta = append(f.Meta, &pictureBlock)
	return nil
}

// detectImageFormat sniffs the MIME type of cover data, defaulting to JPEG.
func detectImageFormat(data []byte) string {
	switch {
	case len(data) >= 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return "image/png"
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	case len(data) >= 4 && string(data[0:4]) == "GIF8":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
