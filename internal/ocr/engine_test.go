package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"invoice-extractor/internal/common"
)

// encodeGrayPNG builds raw PNG bytes for a synthetic grayscale image.
func encodeGrayPNG(t *testing.T, w, h int, at func(x, y int) uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: at(x, y)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// blurryPNG is flat mid-gray: Laplacian variance 0, well under any
// low-quality threshold. Its preprocessed variant is all-white, which
// lets the stub tell the two variants apart.
func blurryPNG(t *testing.T) []byte {
	return encodeGrayPNG(t, 32, 32, func(x, y int) uint8 { return 128 })
}

// sharpPNG alternates 10/200: huge Laplacian variance, and no pixel is
// ever 0 or 255 so it can't be mistaken for a preprocessed variant.
func sharpPNG(t *testing.T) []byte {
	return encodeGrayPNG(t, 32, 32, func(x, y int) uint8 {
		if (x+y)%2 == 0 {
			return 10
		}
		return 200
	})
}

func isBinaryImage(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			if v != 0 && v != 255 {
				return false
			}
		}
	}
	return true
}

type stubCall struct {
	mode    SegMode
	variant Variant
}

// stubRecognizer scripts responses per call and records the sequence of
// (mode, variant) pairs it saw. The variant is inferred from the image:
// the preprocessing transform emits strictly binary pixels.
type stubRecognizer struct {
	respond func(n int, mode SegMode, variant Variant) (string, error)
	calls   []stubCall
	cancel  context.CancelFunc // if set, called after the first attempt
}

func (s *stubRecognizer) Recognize(_ context.Context, img image.Image, _ []string, mode SegMode) (string, error) {
	variant := VariantOriginal
	if isBinaryImage(img) {
		variant = VariantPreprocessed
	}
	s.calls = append(s.calls, stubCall{mode: mode, variant: variant})
	if s.cancel != nil && len(s.calls) == 1 {
		s.cancel()
	}
	return s.respond(len(s.calls), mode, variant)
}

func (s *stubRecognizer) RecognizeLayout(_ context.Context, img image.Image, _ []string, mode SegMode) (Layout, error) {
	b := img.Bounds()
	return Layout{
		Text:        "layout",
		Words:       []Word{{Text: "layout", X: 1, Y: 2, Width: 3, Height: 4, Confidence: 0.9}},
		ImageWidth:  b.Dx(),
		ImageHeight: b.Dy(),
	}, nil
}

func newTestEngine(rec Recognizer) *Engine {
	return NewEngine(rec, Config{EnablePreprocess: true}, nil)
}

func TestOriginalAttemptAlwaysPrecedesPreprocessed(t *testing.T) {
	stub := &stubRecognizer{respond: func(n int, _ SegMode, _ Variant) (string, error) {
		return "tiny", nil // always under the low-signal threshold
	}}
	e := newTestEngine(stub)

	if _, err := e.ExtractText(context.Background(), blurryPNG(t)); err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if len(stub.calls) == 0 {
		t.Fatal("no attempts recorded")
	}
	if stub.calls[0].variant != VariantOriginal {
		t.Fatalf("first attempt variant = %s, want original", stub.calls[0].variant)
	}
	for i := 1; i < len(stub.calls); i++ {
		if stub.calls[i].variant == VariantPreprocessed && stub.calls[i-1].variant != VariantOriginal {
			t.Fatalf("call %d: preprocessed attempt not preceded by an original attempt", i)
		}
	}
}

func TestNoPreprocessWhenFirstPassAdequate(t *testing.T) {
	long := strings.Repeat("a", 150) // above the 100-char threshold
	stub := &stubRecognizer{respond: func(n int, _ SegMode, _ Variant) (string, error) {
		return long, nil
	}}
	e := newTestEngine(stub)

	res, err := e.ExtractText(context.Background(), blurryPNG(t))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	for _, c := range stub.calls {
		if c.variant == VariantPreprocessed {
			t.Fatal("preprocessing attempted despite adequate first-pass text")
		}
	}
	if res.Attempts != len(segModes) {
		t.Fatalf("attempts = %d, want %d", res.Attempts, len(segModes))
	}
}

func TestNoPreprocessOnSharpImage(t *testing.T) {
	stub := &stubRecognizer{respond: func(n int, _ SegMode, _ Variant) (string, error) {
		return "tiny", nil
	}}
	e := newTestEngine(stub)

	if _, err := e.ExtractText(context.Background(), sharpPNG(t)); err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	for _, c := range stub.calls {
		if c.variant == VariantPreprocessed {
			t.Fatal("preprocessing attempted on a sharp image")
		}
	}
}

func TestPreprocessRescuesBlurryLowSignalImage(t *testing.T) {
	stub := &stubRecognizer{respond: func(n int, _ SegMode, variant Variant) (string, error) {
		if variant == VariantPreprocessed {
			return "rescued text from the binarized variant", nil
		}
		return "x", nil
	}}
	e := newTestEngine(stub)

	res, err := e.ExtractText(context.Background(), blurryPNG(t))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if res.Variant != VariantPreprocessed {
		t.Fatalf("winning variant = %s, want preprocessed", res.Variant)
	}
	if res.Text != "rescued text from the binarized variant" {
		t.Fatalf("unexpected winning text: %q", res.Text)
	}
	// double-gated rescue fires for every configuration here: 2x modes
	if want := 2 * len(segModes); res.Attempts != want {
		t.Fatalf("attempts = %d, want %d", res.Attempts, want)
	}
}

func TestBestResultIsMaxLengthFirstWins(t *testing.T) {
	texts := []string{"bbbbb", "ccccccccc", "ddddddd"} // lengths 5, 9, 7
	stub := &stubRecognizer{respond: func(n int, _ SegMode, _ Variant) (string, error) {
		return texts[n-1], nil
	}}
	e := NewEngine(stub, Config{EnablePreprocess: false}, nil)

	res, err := e.ExtractText(context.Background(), blurryPNG(t))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if res.Text != "ccccccccc" || res.Chars != 9 {
		t.Fatalf("best = %q (%d chars), want the 9-char attempt", res.Text, res.Chars)
	}
}

func TestTieKeepsEarliestAttempt(t *testing.T) {
	stub := &stubRecognizer{respond: func(n int, _ SegMode, _ Variant) (string, error) {
		return []string{"first", "later", "other"}[n-1], nil // equal lengths
	}}
	e := NewEngine(stub, Config{EnablePreprocess: false}, nil)

	res, err := e.ExtractText(context.Background(), blurryPNG(t))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if res.Text != "first" {
		t.Fatalf("tie broke to %q, want the earliest attempt", res.Text)
	}
	if res.Mode != SegAuto {
		t.Fatalf("winning mode = %s, want auto", res.Mode)
	}
}

func TestFailedAttemptDegrades(t *testing.T) {
	stub := &stubRecognizer{respond: func(n int, _ SegMode, _ Variant) (string, error) {
		if n == 1 {
			return "", errors.New("engine hiccup")
		}
		return "recovered", nil
	}}
	e := NewEngine(stub, Config{EnablePreprocess: false}, nil)

	res, err := e.ExtractText(context.Background(), blurryPNG(t))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if res.Text != "recovered" {
		t.Fatalf("best text = %q, want text from a surviving attempt", res.Text)
	}
}

func TestZeroTextReturnsEmptyNotError(t *testing.T) {
	stub := &stubRecognizer{respond: func(n int, _ SegMode, _ Variant) (string, error) {
		return "  \n ", nil
	}}
	e := newTestEngine(stub)

	res, err := e.ExtractText(context.Background(), sharpPNG(t))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if res.Text != "" || res.Chars != 0 {
		t.Fatalf("expected empty result, got %q (%d chars)", res.Text, res.Chars)
	}
}

func TestCancellationCheckpointReturnsBestSoFar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stub := &stubRecognizer{
		cancel: cancel,
		respond: func(n int, _ SegMode, _ Variant) (string, error) {
			return "partial result", nil
		},
	}
	e := newTestEngine(stub)

	res, err := e.ExtractText(ctx, blurryPNG(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if res.Text != "partial result" {
		t.Fatalf("best so far = %q, want the completed attempt", res.Text)
	}
	if res.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", res.Attempts)
	}
}

func TestNilRecognizerIsDependencyFailure(t *testing.T) {
	e := NewEngine(nil, Config{}, nil)
	if _, err := e.ExtractText(context.Background(), blurryPNG(t)); !errors.Is(err, common.ErrDependencyUnavailable) {
		t.Fatalf("error = %v, want ErrDependencyUnavailable", err)
	}
}

func TestUndecodableImageIsInputError(t *testing.T) {
	e := newTestEngine(&stubRecognizer{respond: func(int, SegMode, Variant) (string, error) { return "", nil }})
	if _, err := e.ExtractText(context.Background(), []byte("garbage")); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if _, err := e.ExtractText(context.Background(), nil); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput for empty input", err)
	}
}

func TestExtractLayoutSingleUnmodifiedPass(t *testing.T) {
	stub := &stubRecognizer{respond: func(int, SegMode, Variant) (string, error) { return "", nil }}
	e := newTestEngine(stub)

	layout, err := e.ExtractLayout(context.Background(), blurryPNG(t))
	if err != nil {
		t.Fatalf("ExtractLayout() error = %v", err)
	}
	if layout.ImageWidth != 32 || layout.ImageHeight != 32 {
		t.Fatalf("unexpected dimensions: %dx%d", layout.ImageWidth, layout.ImageHeight)
	}
	if len(layout.Words) != 1 || layout.Words[0].Text != "layout" {
		t.Fatalf("unexpected words: %+v", layout.Words)
	}
	if len(stub.calls) != 0 {
		t.Fatal("layout mode must not route through the multi-pass driver")
	}
}
