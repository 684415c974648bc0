package compose

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"tileproxy/internal/fetch"
)

// ErrDimensionMismatch reports overlay pixel dimensions differing from the
// base tile. Treated as an upstream-data defect, not a client error.
var ErrDimensionMismatch = errors.New("overlay dimensions do not match base tile")

const jpegQuality = 90

// Composite merges a base tile with zero or more overlays, alpha-blending the
// overlays onto the base in slice order. With no overlays the base bytes pass
// through untouched unless a different output format is requested. Multi-layer
// composites default to png, matching the transparent overlays they carry.
func Composite(base *fetch.TileImage, overlays []*fetch.TileImage, outputFormat string) (*fetch.TileImage, error) {
	if len(overlays) == 0 {
		if outputFormat == "" || outputFormat == base.Format {
			return base, nil
		}
		return reencode(base, outputFormat)
	}

	for _, overlay := range overlays {
		if overlay.Width != base.Width || overlay.Height != base.Height {
			return nil, fmt.Errorf("%w: base %dx%d, overlay %dx%d",
				ErrDimensionMismatch, base.Width, base.Height, overlay.Width, overlay.Height)
		}
	}

	baseImg, err := decode(base)
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(baseImg.Bounds())
	draw.Draw(canvas, canvas.Bounds(), baseImg, image.Point{}, draw.Src)

	for _, overlay := range overlays {
		overlayImg, err := decode(overlay)
		if err != nil {
			return nil, err
		}
		draw.Draw(canvas, canvas.Bounds(), overlayImg, image.Point{}, draw.Over)
	}

	if outputFormat == "" {
		outputFormat = "png"
	}
	return encode(canvas, outputFormat, base.Width, base.Height)
}

func decode(tile *fetch.TileImage) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(tile.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrDecode, err)
	}
	return img, nil
}

func reencode(tile *fetch.TileImage, format string) (*fetch.TileImage, error) {
	img, err := decode(tile)
	if err != nil {
		return nil, err
	}
	return encode(img, format, tile.Width, tile.Height)
}

func encode(img image.Image, format string, width, height int) (*fetch.TileImage, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode composite as png: %w", err)
		}
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode composite as jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}

	return &fetch.TileImage{
		Data:   buf.Bytes(),
		Format: format,
		Width:  width,
		Height: height,
	}, nil
}
