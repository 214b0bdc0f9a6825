package downloader

import (
	"fmt"
	"strconv"

	"github.com/bogem/id3v2/v2"
)

// WriteMP3Tags writes ID3v2.4 tags to an MP3 file.
func WriteMP3Tags(path string, meta TrackMetadata, coverData []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.DeleteAllFrames()

	tag.SetTitle(meta.Title)
	tag.SetArtist(meta.Artist)
	tag.SetAlbum(meta.Album)
	tag.SetGenre(meta.Genre)
	if meta.Date != "" {
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, meta.Date)
	}

	trackStr := strconv.Itoa(meta.TrackNumber)
	if meta.TotalTracks > 0 {
		trackStr += "/" + strconv.Itoa(meta.TotalTracks)
	}
	tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, trackStr)
	tag.AddTextFrame(tag.CommonID("Part of a set"), id3v2.EncodingUTF8,
		strconv.Itoa(meta.DiscNumber)+"/"+strconv.Itoa(meta.TotalDiscs))

	if meta.AlbumArtist != "" {
		tag.AddTextFrame(tag.CommonID("Band/Orchestra/Accompaniment"), id3v2.EncodingUTF8, meta.AlbumArtist)
	}
	if meta.Composer != "" {
		tag.AddTextFrame(tag.CommonID("Composer"), id3v2.EncodingUTF8, meta.Composer)
	}
	if meta.Label != "" {
		tag.AddTextFrame("TPUB", id3v2.EncodingUTF8, meta.Label)
	}
	if meta.ISRC != "" {
		tag.AddTextFrame("TSRC", id3v2.EncodingUTF8, meta.ISRC)
	}
	if meta.Copyright != "" {
		tag.AddTextFrame("TCOP", id3v2.EncodingUTF8, meta.Copyright)
	}
	if meta.UPC != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "BARCODE",
			Value:       meta.UPC,
		})
	}

	if len(coverData) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    detectImageFormat(coverData),
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     coverData,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save MP3 tags: %w", err)
	}
	return nil
}
