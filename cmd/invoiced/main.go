package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"invoice-extractor/internal/common"
	"invoice-extractor/internal/fields"
	"invoice-extractor/internal/imgproc"
	"invoice-extractor/internal/ocr"
	"invoice-extractor/internal/pipeline"
	"invoice-extractor/internal/server"
	"invoice-extractor/internal/template"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(slogger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := ocr.NewEngine(ocr.NewTesseract(), ocr.Config{
		Languages:          strings.Split(cfg.OCR.Languages, "+"),
		LowSignalChars:     cfg.OCR.LowSignalChars,
		LowQualityVariance: cfg.OCR.LowQualityVariance,
		EnablePreprocess:   cfg.OCR.EnablePreprocess,
		Preproc:            imgproc.Options{Window: cfg.Preproc.Window, Bias: cfg.Preproc.Bias},
	}, slogger)

	// Template extractor client is built once and shared read-only
	// across requests; nil means PDF parsing is off on this deployment.
	var templates template.Extractor
	if cfg.Template.ServiceURL != "" {
		templates = template.NewClient(cfg.Template.ServiceURL, cfg.Template.Timeout, slogger)
	} else {
		log.Info("TEMPLATE_SERVICE_URL not set; PDF template extraction disabled")
	}

	p := pipeline.New(engine, fields.Config{MaxTotal: cfg.Fields.MaxTotal}, templates, slogger)
	srv := server.New(engine, p, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
