package imagestore

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// MaxDimension is the largest width or height a stored image may have.
const MaxDimension = 1600

// Normalize decodes data, downscales anything larger than MaxDimension on
// either axis and re-encodes it in its original format. Images that already
// fit are returned untouched.
func Normalize(data []byte, mimeType string) ([]byte, error) {
	format, err := formatFor(mimeType)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= MaxDimension && bounds.Dy() <= MaxDimension {
		return data, nil
	}
	img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFor(mimeType string) (imaging.Format, error) {
	switch mimeType {
	case "image/jpeg":
		return imaging.JPEG, nil
	case "image/png":
		return imaging.PNG, nil
	case "image/gif":
		return imaging.GIF, nil
	case "image/bmp":
		return imaging.BMP, nil
	case "image/tiff":
		return imaging.TIFF, nil
	}
	return 0, fmt.Errorf("unsupported image type %s", mimeType)
}
