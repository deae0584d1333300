package imgproc

import (
	"bytes"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"invoice-extractor/internal/common"
)

// Decode decodes raw image bytes into a pixel buffer. Empty or
// undecodable input is an input error.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, common.NewAppError("DECODE_EMPTY", "empty image data", common.ErrInvalidInput)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewAppError("DECODE_FAILED", "undecodable image data", common.ErrInvalidInput)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, common.NewAppError("DECODE_EMPTY", "zero-size image", common.ErrInvalidInput)
	}
	return img, nil
}

// DecodeGray decodes raw image bytes and converts them to grayscale.
func DecodeGray(data []byte) (*image.Gray, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return ToGray(img), nil
}

// ToGray converts any decoded image to an 8-bit grayscale buffer.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	src := imaging.Grayscale(img)
	gray := image.NewGray(src.Bounds())
	draw.Draw(gray, gray.Bounds(), src, src.Bounds().Min, draw.Src)
	return gray
}
