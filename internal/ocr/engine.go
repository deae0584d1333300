// Package ocr drives the external OCR capability across several
// segmentation configurations and image variants, keeping the attempt
// that recovers the most text.
package ocr

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"invoice-extractor/internal/common"
	"invoice-extractor/internal/imgproc"
)

// Variant tags the source image of an OCR attempt.
type Variant string

const (
	VariantOriginal     Variant = "original"
	VariantPreprocessed Variant = "preprocessed"
)

// Config holds the engine tunables.
type Config struct {
	// Languages are tesseract language codes, e.g. ["eng", "mkd"].
	// Default ["eng"].
	Languages []string
	// LowSignalChars is the recovered-text length (characters, not
	// bytes) below which the result is considered inadequate and a
	// preprocessing rescue may be warranted. Default 100.
	LowSignalChars int
	// LowQualityVariance is the sharpness score below which an image is
	// considered blurry enough to preprocess. Default 100.
	LowQualityVariance float64
	// EnablePreprocess turns the rescue path on. Without it the engine
	// still runs correctly, just less robustly on poor captures.
	EnablePreprocess bool
	// Preproc are the preprocessing transform tunables.
	Preproc imgproc.Options
}

// Result is the engine's output: the best attempt observed.
type Result struct {
	Text     string
	Chars    int
	Mode     SegMode
	Variant  Variant
	Attempts int
	Duration time.Duration
}

// attemptPolicy is one entry of the ordered pass list: a segmentation
// mode plus a source variant. Rescue attempts carry the double gate
// (global low signal AND per-image low quality); keeping that gating as
// data lets passes be added or removed without touching selection.
type attemptPolicy struct {
	mode   SegMode
	rescue bool
}

// segModes is the fixed, ordered set of segmentation configurations.
// Order affects only cost, not the result: selection is max-length.
var segModes = []SegMode{SegAuto, SegBlock, SegColumn}

func policies() []attemptPolicy {
	out := make([]attemptPolicy, 0, 2*len(segModes))
	for _, m := range segModes {
		out = append(out, attemptPolicy{mode: m}, attemptPolicy{mode: m, rescue: true})
	}
	return out
}

// Engine is the multi-pass OCR driver.
type Engine struct {
	rec    Recognizer
	cfg    Config
	logger *slog.Logger
}

// NewEngine builds an engine around a recognizer. A nil recognizer is
// tolerated here and reported as a dependency failure at extraction
// time, so operators see a configuration error rather than a crash.
func NewEngine(rec Recognizer, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	if cfg.LowSignalChars <= 0 {
		cfg.LowSignalChars = 100
	}
	if cfg.LowQualityVariance <= 0 {
		cfg.LowQualityVariance = 100
	}
	if cfg.Preproc.Window == 0 {
		cfg.Preproc = imgproc.DefaultOptions()
	}
	return &Engine{rec: rec, cfg: cfg, logger: logger}
}

// ExtractText decodes the image and runs the ordered attempt list,
// returning the longest trimmed text observed. Ties keep the earliest
// attempt; later attempts replace only on strictly greater length.
// An engine that recovered nothing returns an empty Result.Text rather
// than failing; the caller decides what no text means.
//
// There is a cancellation checkpoint before every attempt, and the best
// result so far is valid at each of them.
func (e *Engine) ExtractText(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()
	if e.rec == nil {
		return Result{}, common.NewAppError("OCR_UNAVAILABLE", "no OCR capability configured", common.ErrDependencyUnavailable)
	}

	gray, err := imgproc.DecodeGray(data)
	if err != nil {
		return Result{}, err
	}

	var best Result

	// Computed at most once per document, and only when a rescue pass
	// is actually on the table.
	var (
		sharpness     float64
		sharpnessDone bool
		preprocessed  *image.Gray
	)

	for _, p := range policies() {
		if err := ctx.Err(); err != nil {
			best.Duration = time.Since(start)
			return best, err
		}

		img := image.Image(gray)
		variant := VariantOriginal
		if p.rescue {
			if !e.cfg.EnablePreprocess || best.Chars >= e.cfg.LowSignalChars {
				continue
			}
			if !sharpnessDone {
				sharpness = imgproc.Sharpness(gray)
				sharpnessDone = true
				e.logger.Debug("engine.sharpness", "score", sharpness)
			}
			if sharpness >= e.cfg.LowQualityVariance {
				continue
			}
			if preprocessed == nil {
				preprocessed = imgproc.Preprocess(gray, e.cfg.Preproc)
			}
			img = preprocessed
			variant = VariantPreprocessed
		}

		best.Attempts++
		text, err := e.rec.Recognize(ctx, img, e.cfg.Languages, p.mode)
		if err != nil {
			// One failed pass does not fail the document.
			e.logger.Warn("engine.attempt_failed", "mode", p.mode.String(), "variant", string(variant), "error", err)
			continue
		}

		trimmed := strings.TrimSpace(text)
		chars := utf8.RuneCountInString(trimmed)
		e.logger.Debug("engine.attempt", "mode", p.mode.String(), "variant", string(variant), "chars", chars)
		if chars > best.Chars {
			best.Text = trimmed
			best.Chars = chars
			best.Mode = p.mode
			best.Variant = variant
		}
	}

	best.Duration = time.Since(start)
	e.logger.Info("engine.done",
		"chars", best.Chars,
		"mode", best.Mode.String(),
		"variant", string(best.Variant),
		"attempts", best.Attempts,
		"duration_ms", best.Duration.Milliseconds(),
	)
	return best, nil
}

// ExtractLayout performs exactly one recognition pass on the unmodified
// image under a single fixed configuration, returning text plus word
// coordinates. Preprocessing shifts pixel coordinates, so it must never
// run ahead of a coordinate-producing pass; this mode trades robustness
// for coordinate fidelity.
func (e *Engine) ExtractLayout(ctx context.Context, data []byte) (Layout, error) {
	if e.rec == nil {
		return Layout{}, common.NewAppError("OCR_UNAVAILABLE", "no OCR capability configured", common.ErrDependencyUnavailable)
	}
	img, err := imgproc.Decode(data)
	if err != nil {
		return Layout{}, err
	}
	return e.rec.RecognizeLayout(ctx, img, e.cfg.Languages, SegBlock)
}
