package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"invoice-extractor/internal/common"
	"invoice-extractor/internal/invoice"
	"invoice-extractor/internal/ocr"
	"invoice-extractor/internal/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubEngine struct {
	text   ocr.Result
	layout ocr.Layout
	err    error
}

func (s *stubEngine) ExtractText(context.Context, []byte) (ocr.Result, error) {
	return s.text, s.err
}

func (s *stubEngine) ExtractLayout(context.Context, []byte) (ocr.Layout, error) {
	return s.layout, s.err
}

type stubParser struct {
	res pipeline.Result
	err error
}

func (s *stubParser) ParseDocument(context.Context, string, []byte) (pipeline.Result, error) {
	return s.res, s.err
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form: %v", err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func doRequest(t *testing.T, srv *Server, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := New(&stubEngine{}, &stubParser{}, nil)
	w := doRequest(t, srv, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestOCRText(t *testing.T) {
	srv := New(&stubEngine{text: ocr.Result{Text: "hello world", Chars: 11}}, &stubParser{}, nil)
	body, ct := multipartBody(t, "file", "receipt.png", []byte("img"))
	w := doRequest(t, srv, http.MethodPost, "/ocr", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Text   string `json:"text"`
		Length int    `json:"length"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != "hello world" || resp.Length != 11 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOCRLayout(t *testing.T) {
	srv := New(&stubEngine{layout: ocr.Layout{
		Text:        "word",
		Words:       []ocr.Word{{Text: "word", X: 1, Y: 2, Width: 3, Height: 4}},
		ImageWidth:  640,
		ImageHeight: 480,
	}}, &stubParser{}, nil)
	body, ct := multipartBody(t, "file", "receipt.png", []byte("img"))
	w := doRequest(t, srv, http.MethodPost, "/ocr?format=layout", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Words       []ocr.Word `json:"words"`
		ImageWidth  int        `json:"image_width"`
		ImageHeight int        `json:"image_height"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ImageWidth != 640 || resp.ImageHeight != 480 || len(resp.Words) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOCRMissingFile(t *testing.T) {
	srv := New(&stubEngine{}, &stubParser{}, nil)
	w := doRequest(t, srv, http.MethodPost, "/ocr", bytes.NewBuffer(nil), "multipart/form-data")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestParseReturnsCanonicalInvoice(t *testing.T) {
	name := "ACME"
	srv := New(&stubEngine{}, &stubParser{res: pipeline.Result{
		Invoice: &invoice.Invoice{
			Supplier:  invoice.Supplier{Name: &name},
			LineItems: []invoice.LineItem{},
			Taxes:     []invoice.TaxEntry{},
			Raw:       &invoice.LooseRecord{Issuer: &name},
		},
		Source: "heuristic",
	}}, nil)
	body, ct := multipartBody(t, "file", "receipt.jpg", []byte("img"))
	w := doRequest(t, srv, http.MethodPost, "/parse", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, k := range []string{"supplier", "invoice", "line_items", "taxes", "totals", "raw"} {
		if _, ok := resp[k]; !ok {
			t.Fatalf("missing key %q in response", k)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", common.NewAppError("X", "bad", common.ErrInvalidInput), http.StatusBadRequest},
		{"dependency", common.NewAppError("X", "down", common.ErrDependencyUnavailable), http.StatusServiceUnavailable},
		{"no text", common.NewAppError("X", "blank", common.ErrNoTextRecovered), http.StatusUnprocessableEntity},
		{"no template", common.NewAppError("X", "nope", common.ErrNoTemplateMatch), http.StatusUnprocessableEntity},
		{"internal", common.NewAppError("X", "bug", common.ErrEmptyRecord), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(&stubEngine{}, &stubParser{err: tt.err}, nil)
			body, ct := multipartBody(t, "file", "doc.pdf", []byte("data"))
			w := doRequest(t, srv, http.MethodPost, "/parse", body, ct)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := New(&stubEngine{}, &stubParser{}, nil)
	w := doRequest(t, srv, http.MethodGet, "/health", nil, "")
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("missing X-Request-Id header")
	}
}
