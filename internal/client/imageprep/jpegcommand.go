package imageprep

import (
	"bytes"
	"fmt"
	"image/draw"
	"image/jpeg"
)

const (
	JPEGCommandName = "jpeg"
	// DefaultJPEGQuality matches the 0.7 compression used by the mobile app.
	DefaultJPEGQuality = 70
)

// JPEGCommand re-encodes an image as JPEG. Transparent areas become white.
type JPEGCommand struct {
	quality int
}

func NewJPEGCommand(params map[string]any) (Command, error) {
	quality := GetIntParam(params, "quality", DefaultJPEGQuality)
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}
	return &JPEGCommand{quality: quality}, nil
}

func (c *JPEGCommand) Name() string {
	return JPEGCommandName
}

func (c *JPEGCommand) Execute(imageData []byte) ([]byte, error) {
	img, _, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	canvas := whiteCanvas(img.Bounds())
	draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
