// Package template is the boundary to the external template-based
// structured extractor. The extractor itself (vendor templates, layout
// matching) lives in a separate service; this package only relays its
// output as a loose record, or its "no match" signal.
package template

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"invoice-extractor/internal/common"
	"invoice-extractor/internal/invoice"
)

// Extractor is the template-based structured extraction capability.
// Extract returns the matched record, or ErrNoTemplateMatch when no
// vendor template applies to the document.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (*invoice.LooseRecord, error)
}

// Client calls the extractor service over HTTP. Built once at startup
// and never mutated; safe to share across concurrent requests. The
// service loads its vendor template set once at its own startup, so a
// given deployment answers consistently for the client's lifetime.
type Client struct {
	baseURL string
	hc      *http.Client
	logger  *slog.Logger
}

// NewClient constructs a template extractor client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Extract uploads the document and decodes the extractor's loose
// record. Monetary fields on the wire are integer minor currency units,
// matching the record contract.
func (c *Client) Extract(ctx context.Context, filename string, data []byte) (*invoice.LooseRecord, error) {
	if len(data) == 0 {
		return nil, common.NewAppError("TEMPLATE_EMPTY_INPUT", "empty document", common.ErrInvalidInput)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.logger.Error("template.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.NewAppError("TEMPLATE_UNREACHABLE", "template extractor not reachable", common.ErrDependencyUnavailable)
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.logger.Warn("template.body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	c.logger.Info("template.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, common.NewAppError("TEMPLATE_NO_MATCH", "no template matched document", common.ErrNoTemplateMatch)
	case resp.StatusCode/100 != 2:
		return nil, common.NewAppError("TEMPLATE_FAILED",
			fmt.Sprintf("template extractor status %d", resp.StatusCode), common.ErrDependencyUnavailable)
	}

	var rec invoice.LooseRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode template record: %w", err)
	}
	// A 2xx with an empty object is a broken extractor, not a sparse
	// result; reject it here so the normalizer only ever sees records
	// that carry data.
	if rec.IsEmpty() {
		return nil, common.NewAppError("TEMPLATE_EMPTY_RECORD", "template extractor returned an empty record", common.ErrEmptyRecord)
	}
	return &rec, nil
}
