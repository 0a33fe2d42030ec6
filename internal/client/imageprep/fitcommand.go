package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	xdraw "golang.org/x/image/draw"
)

const FitCommandName = "fit"

// FitParams represents typed parameters for the fit command
type FitParams struct {
	MaxWidth  int
	MaxHeight int
}

// NewFitParamsFromMap creates FitParams from a generic map
func NewFitParamsFromMap(params map[string]any) (*FitParams, error) {
	if err := ValidateRequiredParams(params, []string{"maxWidth", "maxHeight"}); err != nil {
		return nil, err
	}

	maxWidth := GetIntParam(params, "maxWidth", 0)
	maxHeight := GetIntParam(params, "maxHeight", 0)
	if maxWidth <= 0 {
		return nil, fmt.Errorf("maxWidth must be positive, got %d", maxWidth)
	}
	if maxHeight <= 0 {
		return nil, fmt.Errorf("maxHeight must be positive, got %d", maxHeight)
	}

	return &FitParams{MaxWidth: maxWidth, MaxHeight: maxHeight}, nil
}

// FitCommand shrinks an image to fit into a bounding box, preserving the
// aspect ratio. Images that already fit are passed through unchanged.
type FitCommand struct {
	params *FitParams
}

func NewFitCommand(params map[string]any) (Command, error) {
	typedParams, err := NewFitParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &FitCommand{params: typedParams}, nil
}

func (c *FitCommand) Name() string {
	return FitCommandName
}

// Execute returns PNG data when the image had to be scaled
func (c *FitCommand) Execute(imageData []byte) ([]byte, error) {
	img, format, err := decodeImage(imageData)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitDimensions(bounds.Dx(), bounds.Dy(), c.params.MaxWidth, c.params.MaxHeight)
	if width == bounds.Dx() && height == bounds.Dy() {
		slog.Debug("image already fits, skipping scaling", "format", format, "width", width, "height", height)
		return imageData, nil
	}

	slog.Debug("scaling image",
		"format", format,
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"scaled_width", width,
		"scaled_height", height)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode scaled image: %w", err)
	}
	return buf.Bytes(), nil
}

// fitDimensions never upscales and keeps each side at least one pixel.
func fitDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}
	scale := min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	scaledWidth := max(1, int(float64(width)*scale+0.5))
	scaledHeight := max(1, int(float64(height)*scale+0.5))
	return min(scaledWidth, maxWidth), min(scaledHeight, maxHeight)
}
