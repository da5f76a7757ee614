package storage

import (
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ExtractCaptureTime reads EXIF metadata from an image stream and returns
// the original capture timestamp when one is present. Screenshots and
// stripped images have none; that is not an error, the caller records nil.
func ExtractCaptureTime(r io.Reader) *time.Time {
	x, err := exif.Decode(r)
	if err != nil {
		return nil
	}

	tm, err := x.DateTime()
	if err != nil {
		return nil
	}

	return &tm
}
