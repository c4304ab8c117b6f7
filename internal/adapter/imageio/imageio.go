// Package imageio decodes image files into the raw RGBA pixel form the
// engine consumes. The engine core itself never decodes anything; this
// adapter sits at the CLI edge.
package imageio

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"photomatch/internal/domain"
)

// Load decodes the image file at path. Supported formats are whatever
// the registered decoders provide: jpeg, png, gif, bmp, tiff and webp.
func Load(path string) (domain.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Image{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads one image from r into RGBA pixels.
func Decode(r io.Reader) (domain.Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return domain.Image{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), src, bounds.Min, draw.Src)

	return domain.Image{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pix:    nrgba.Pix,
	}, nil
}
