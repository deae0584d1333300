package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"invoice-extractor/internal/common"
	"invoice-extractor/internal/fields"
	"invoice-extractor/internal/imgproc"
	"invoice-extractor/internal/ocr"
	"invoice-extractor/internal/pipeline"
	"invoice-extractor/internal/template"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "parseinvoice <document-path>")
		os.Exit(2)
	}
	path := os.Args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read document", "path", path, "error", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	engine := ocr.NewEngine(ocr.NewTesseract(), ocr.Config{
		Languages:          strings.Split(cfg.OCR.Languages, "+"),
		LowSignalChars:     cfg.OCR.LowSignalChars,
		LowQualityVariance: cfg.OCR.LowQualityVariance,
		EnablePreprocess:   cfg.OCR.EnablePreprocess,
		Preproc:            imgproc.Options{Window: cfg.Preproc.Window, Bias: cfg.Preproc.Bias},
	}, logger)

	var templates template.Extractor
	if cfg.Template.ServiceURL != "" {
		templates = template.NewClient(cfg.Template.ServiceURL, cfg.Template.Timeout, logger)
	}

	p := pipeline.New(engine, fields.Config{MaxTotal: cfg.Fields.MaxTotal}, templates, logger)

	start := time.Now()
	res, err := p.ParseDocument(ctx, filepath.Base(path), data)
	if err != nil {
		logger.Error("parse failed", "path", path, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	logger.Info("parse OK",
		"source", res.Source,
		"chars", res.Chars,
		"attempts", res.Attempts,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	out, err := json.MarshalIndent(res.Invoice, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	os.Stdout.Write(append(out, '\n'))
}
