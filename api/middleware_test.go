package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"todo-board/storage"
)

func gzipped(t *testing.T, s string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return &buf
}

func TestGzipRequestMiddleware(t *testing.T) {
	mem := storage.NewMemory()
	e := newTestServer(t, mem, nil)
	e.Use(GzipRequestMiddleware())

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", gzipped(t, validDraft))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderContentEncoding, "identity, GZIP")
	rec := serve(e, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if tasks, _ := mem.List(context.Background()); len(tasks) != 1 {
		t.Fatalf("expected task from gzip body")
	}
}

func TestGzipRequestMiddlewareRejectsInvalid(t *testing.T) {
	e := newTestServer(t, storage.NewMemory(), nil)
	e.Use(GzipRequestMiddleware())

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader("plain"))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	if rec := serve(e, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAcceptsGzip(t *testing.T) {
	tests := []struct {
		values []string
		want   bool
	}{
		{values: nil, want: false},
		{values: []string{"br"}, want: false},
		{values: []string{"br, gzip"}, want: true},
		{values: []string{"deflate", " Gzip "}, want: true},
	}
	for _, tt := range tests {
		if got := acceptsGzip(tt.values); got != tt.want {
			t.Fatalf("acceptsGzip(%q) = %v, want %v", tt.values, got, tt.want)
		}
	}
}
