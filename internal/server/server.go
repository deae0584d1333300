package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"invoice-extractor/internal/common"
	"invoice-extractor/internal/ocr"
	"invoice-extractor/internal/pipeline"
)

// Engine is the OCR surface the server exposes directly.
type Engine interface {
	ExtractText(ctx context.Context, data []byte) (ocr.Result, error)
	ExtractLayout(ctx context.Context, data []byte) (ocr.Layout, error)
}

// Parser is the document parsing surface.
type Parser interface {
	ParseDocument(ctx context.Context, filename string, data []byte) (pipeline.Result, error)
}

// Server is the thin HTTP boundary over the extraction pipeline.
type Server struct {
	engine Engine
	parser Parser
	logger *zap.Logger
}

func New(engine Engine, parser Parser, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: engine, parser: parser, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	r.GET("/health", s.handleHealth)
	r.POST("/ocr", s.handleOCR)
	r.POST("/parse", s.handleParse)
	return r
}

// requestID attaches a request ID to the context and response headers.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("http.request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("req_id", common.RequestIDFromContext(c.Request.Context())),
		)
	}
}
