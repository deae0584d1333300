package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements Recognizer with the gosseract client. A fresh
// client is created per call; recognition is CGO-bound and not
// goroutine-safe on a shared client.
type Tesseract struct {
	clientFactory func() *gosseract.Client
}

// NewTesseract constructs a Tesseract-backed recognizer.
func NewTesseract() *Tesseract {
	return &Tesseract{clientFactory: gosseract.NewClient}
}

func pageSegMode(mode SegMode) gosseract.PageSegMode {
	switch mode {
	case SegBlock:
		return gosseract.PSM_SINGLE_BLOCK
	case SegColumn:
		return gosseract.PSM_SINGLE_COLUMN
	default:
		return gosseract.PSM_AUTO
	}
}

// Recognize runs one tesseract pass and returns the recovered text.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, langs []string, mode SegMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c, err := t.prepare(img, langs, mode)
	if err != nil {
		return "", err
	}
	defer c.Close()

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract text: %w", err)
	}
	return text, nil
}

// RecognizeLayout runs one tesseract pass and returns text plus word
// bounding boxes.
func (t *Tesseract) RecognizeLayout(ctx context.Context, img image.Image, langs []string, mode SegMode) (Layout, error) {
	if err := ctx.Err(); err != nil {
		return Layout{}, err
	}
	c, err := t.prepare(img, langs, mode)
	if err != nil {
		return Layout{}, err
	}
	defer c.Close()

	text, err := c.Text()
	if err != nil {
		return Layout{}, fmt.Errorf("tesseract text: %w", err)
	}

	b := img.Bounds()
	out := Layout{
		Text:        text,
		Words:       []Word{},
		ImageWidth:  b.Dx(),
		ImageHeight: b.Dy(),
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Layout{}, fmt.Errorf("tesseract boxes: %w", err)
	}
	for _, bb := range boxes {
		out.Words = append(out.Words, Word{
			Text:       bb.Word,
			X:          bb.Box.Min.X,
			Y:          bb.Box.Min.Y,
			Width:      bb.Box.Dx(),
			Height:     bb.Box.Dy(),
			Confidence: bb.Confidence / 100.0,
		})
	}
	return out, nil
}

func (t *Tesseract) prepare(img image.Image, langs []string, mode SegMode) (*gosseract.Client, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	c := t.clientFactory()
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		c.Close()
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			c.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetPageSegMode(pageSegMode(mode)); err != nil {
		c.Close()
		return nil, fmt.Errorf("set page seg mode: %w", err)
	}
	return c, nil
}
