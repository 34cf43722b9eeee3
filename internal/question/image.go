package question

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Thumbnail downsizes an encoded image to fit the bounds, keeping aspect
// ratio and source format. Images already inside the bounds are returned
// unchanged.
func Thumbnail(data []byte, maxWidth, maxHeight int) ([]byte, string, error) {
	cfg, formatName, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image header: %w", err)
	}
	contentType := "image/" + formatName

	if maxWidth <= 0 && maxHeight <= 0 {
		return data, contentType, nil
	}
	if maxWidth <= 0 {
		maxWidth = cfg.Width
	}
	if maxHeight <= 0 {
		maxHeight = cfg.Height
	}
	if cfg.Width <= maxWidth && cfg.Height <= maxHeight {
		return data, contentType, nil
	}

	format, err := imaging.FormatFromExtension(formatName)
	if err != nil {
		format = imaging.PNG
		contentType = "image/png"
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, format); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), contentType, nil
}
