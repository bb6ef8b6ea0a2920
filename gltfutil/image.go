package gltfutil

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anthonynsimon/bild/channel"
	"github.com/blezek/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	_ "github.com/oov/psd"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageDecoder turns image payloads into images.
type ImageDecoder interface {
	Decode(data []byte) (image.Image, error)

	// Channel extracts one color channel (0:R 1:G 2:B 3:A) as a grayscale image.
	Channel(img image.Image, index int) (image.Image, error)
}

type DefaultImageDecoder struct {
	// ResolutionLimit downscales larger images when > 0.
	ResolutionLimit int
}

func (d *DefaultImageDecoder) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// TGA has no magic number.
		var terr error
		if img, terr = tga.Decode(bytes.NewReader(data)); terr != nil {
			return nil, errors.Wrapf(ErrResourceUnavailable, "decode image: %v", err)
		}
	}
	return d.limitResolution(img), nil
}

func (d *DefaultImageDecoder) limitResolution(img image.Image) image.Image {
	limit := d.ResolutionLimit
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if limit <= 0 || (w <= limit && h <= limit) {
		return img
	}
	if w > h {
		w, h = limit, h*limit/w
	} else {
		w, h = w*limit/h, limit
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func (d *DefaultImageDecoder) Channel(img image.Image, index int) (image.Image, error) {
	var c channel.Channel
	switch index {
	case 0:
		c = channel.Red
	case 1:
		c = channel.Green
	case 2:
		c = channel.Blue
	case 3:
		c = channel.Alpha
	default:
		return nil, errors.Errorf("invalid channel %d", index)
	}
	return channel.Extract(img, c), nil
}
