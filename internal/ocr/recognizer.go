package ocr

import (
	"context"
	"image"
)

// SegMode names an OCR segmentation strategy: how the engine partitions
// the page into text regions before recognition.
type SegMode int

const (
	// SegAuto is fully automatic page layout analysis.
	SegAuto SegMode = iota
	// SegBlock assumes a single uniform block of text.
	SegBlock
	// SegColumn assumes a single column of text.
	SegColumn
)

func (m SegMode) String() string {
	switch m {
	case SegAuto:
		return "auto"
	case SegBlock:
		return "block"
	case SegColumn:
		return "column"
	default:
		return "unknown"
	}
}

// Word is a recognized token with pixel coordinates (origin upper-left).
type Word struct {
	Text       string  `json:"text"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

// Layout is the output of a coordinate-producing recognition pass.
type Layout struct {
	Text        string `json:"text"`
	Words       []Word `json:"words"`
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`
}

// Recognizer is the external OCR capability. Implementations must
// support the three segmentation modes and the positional-metadata
// variant. Tests stub it.
type Recognizer interface {
	// Recognize runs OCR on one image under one segmentation mode and
	// returns the recovered text.
	Recognize(ctx context.Context, img image.Image, langs []string, mode SegMode) (string, error)
	// RecognizeLayout additionally returns word coordinates.
	RecognizeLayout(ctx context.Context, img image.Image, langs []string, mode SegMode) (Layout, error)
}
