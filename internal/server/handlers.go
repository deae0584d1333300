package server

import (
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"invoice-extractor/internal/common"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleOCR extracts text from an uploaded image. format=text runs the
// adaptive multi-pass engine; format=layout runs the single-shot
// coordinate-producing mode for positional text overlays.
func (s *Server) handleOCR(c *gin.Context) {
	data, _, ok := s.readUpload(c)
	if !ok {
		return
	}

	switch c.DefaultQuery("format", "text") {
	case "layout":
		layout, err := s.engine.ExtractLayout(c.Request.Context(), data)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"format":       "layout",
			"text":         layout.Text,
			"words":        layout.Words,
			"image_width":  layout.ImageWidth,
			"image_height": layout.ImageHeight,
		})
	case "text":
		res, err := s.engine.ExtractText(c.Request.Context(), data)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"format":  "text",
			"text":    res.Text,
			"length":  utf8.RuneCountInString(res.Text),
		})
	default:
		s.writeError(c, common.NewAppError("BAD_FORMAT", "format must be text or layout", common.ErrInvalidInput))
	}
}

// handleParse runs the full pipeline and responds with the canonical
// invoice JSON.
func (s *Server) handleParse(c *gin.Context) {
	data, filename, ok := s.readUpload(c)
	if !ok {
		return
	}

	res, err := s.parser.ParseDocument(c.Request.Context(), filename, data)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Invoice)
}

func (s *Server) readUpload(c *gin.Context) ([]byte, string, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		s.writeError(c, common.NewAppError("MISSING_FILE", "multipart field \"file\" is required", common.ErrInvalidInput))
		return nil, "", false
	}
	f, err := fh.Open()
	if err != nil {
		s.writeError(c, common.NewAppError("BAD_UPLOAD", "unreadable upload", common.ErrInvalidInput))
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.writeError(c, common.NewAppError("BAD_UPLOAD", "unreadable upload", common.ErrInvalidInput))
		return nil, "", false
	}
	if len(data) == 0 {
		s.writeError(c, common.NewAppError("EMPTY_FILE", "empty file", common.ErrInvalidInput))
		return nil, "", false
	}
	return data, fh.Filename, true
}

// writeError maps the failure taxonomy onto HTTP statuses: bad input is
// the client's problem, missing capabilities are the operator's, and
// unrecovered text / unmatched templates mean "try different input".
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrDependencyUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, common.ErrNoTextRecovered), errors.Is(err, common.ErrNoTemplateMatch):
		status = http.StatusUnprocessableEntity
	}

	s.logger.Warn("http.error",
		zap.Int("status", status),
		zap.String("req_id", common.RequestIDFromContext(c.Request.Context())),
		zap.Error(err),
	)

	var appErr *common.AppError
	code := "INTERNAL"
	msg := "internal error"
	if errors.As(err, &appErr) {
		code = appErr.Code
		msg = appErr.Message
	}
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": msg}})
}
