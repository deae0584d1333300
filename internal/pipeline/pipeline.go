// Package pipeline wires the extraction stages together: raw bytes in,
// canonical invoice out. One pipeline run is a pure, synchronous
// computation over one document; runs share no mutable state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"invoice-extractor/constants"
	"invoice-extractor/internal/common"
	"invoice-extractor/internal/fields"
	"invoice-extractor/internal/invoice"
	"invoice-extractor/internal/ocr"
	"invoice-extractor/internal/template"
)

// TextExtractor is stage 1: image bytes -> best recovered text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (ocr.Result, error)
}

// Result is one parse outcome plus its extraction summary.
type Result struct {
	Invoice  *invoice.Invoice
	Source   string // "heuristic" | "template"
	Chars    int
	Attempts int
	Duration time.Duration
}

type Pipeline struct {
	Engine    TextExtractor
	Fields    fields.Config
	Templates template.Extractor // nil when no extractor service is deployed
	Log       *slog.Logger
}

func New(engine TextExtractor, cfg fields.Config, templates template.Extractor, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxTotal <= 0 {
		cfg = fields.DefaultConfig()
	}
	return &Pipeline{Engine: engine, Fields: cfg, Templates: templates, Log: log}
}

// ParseImage runs the OCR path: multi-pass recognition, heuristic field
// extraction, normalization. Text that OCR could not recover at all is
// the caller's signal to retry with a better capture, not a bug.
func (p *Pipeline) ParseImage(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()

	res, err := p.Engine.ExtractText(ctx, data)
	if err != nil {
		return Result{}, err
	}
	text := ocr.Normalize(res.Text)
	if text == "" {
		return Result{}, common.NewAppError("OCR_NO_TEXT", "no text detected in image", common.ErrNoTextRecovered)
	}

	rec := p.Fields.Extract(text)
	inv, err := invoice.Normalize(rec)
	if err != nil {
		return Result{}, fmt.Errorf("normalize heuristic record: %w", err)
	}

	out := Result{
		Invoice:  inv,
		Source:   "heuristic",
		Chars:    res.Chars,
		Attempts: res.Attempts,
		Duration: time.Since(start),
	}
	p.Log.Info("pipeline.parse_image",
		"req_id", common.RequestIDFromContext(ctx),
		"chars", out.Chars,
		"attempts", out.Attempts,
		"mode", res.Mode.String(),
		"variant", string(res.Variant),
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

// ParseDocument routes by format: PDFs go to the template extractor,
// images go through OCR. A no-match from the extractor is relayed
// untouched; the normalizer is only ever invoked with a present record.
func (p *Pipeline) ParseDocument(ctx context.Context, filename string, data []byte) (Result, error) {
	format := constants.MapExtToFormat(filepath.Ext(filename))
	switch format {
	case constants.PDF:
		return p.parseTemplate(ctx, filename, data)
	case constants.IMAGE:
		return p.ParseImage(ctx, data)
	default:
		return Result{}, common.NewAppError("UNSUPPORTED_TYPE",
			fmt.Sprintf("unsupported file type: %q", filepath.Ext(filename)), common.ErrInvalidInput)
	}
}

func (p *Pipeline) parseTemplate(ctx context.Context, filename string, data []byte) (Result, error) {
	start := time.Now()
	if p.Templates == nil {
		return Result{}, common.NewAppError("TEMPLATE_UNAVAILABLE",
			"template extraction not available on this deployment", common.ErrDependencyUnavailable)
	}

	rec, err := p.Templates.Extract(ctx, filename, data)
	if err != nil {
		return Result{}, err
	}
	inv, err := invoice.Normalize(rec)
	if err != nil {
		return Result{}, fmt.Errorf("normalize template record: %w", err)
	}

	out := Result{Invoice: inv, Source: "template", Duration: time.Since(start)}
	p.Log.Info("pipeline.parse_template",
		"req_id", common.RequestIDFromContext(ctx),
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}
