package frontend

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jo-hoe/wastesort/internal/core"
	"github.com/labstack/echo/v4"
)

// minimal GIF89a header followed by a 1x1 image
var gifData = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func newTestFrontend(t *testing.T) (*echo.Echo, *core.CoreService) {
	t.Helper()
	cfg := &core.ServiceConfig{
		Port:            3000,
		Database:        core.Database{Type: "sqlite", ConnectionString: ":memory:"},
		UploadDirectory: filepath.Join(t.TempDir(), "uploads"),
		PublicBaseURL:   "http://localhost:3000",
		MaxUploadSize:   core.DefaultMaxUploadSize,
		LogLevel:        core.DefaultLogLevel,
	}
	coreService, err := core.NewCoreService(cfg)
	if err != nil {
		t.Fatalf("NewCoreService error: %v", err)
	}
	t.Cleanup(func() { _ = coreService.Close() })

	e := echo.New()
	NewFrontendService(cfg, coreService).SetRoutes(e)
	return e, coreService
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIndexListsEndpoints(t *testing.T) {
	e, _ := newTestFrontend(t)

	rec := get(e, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Smart Waste Sorting System", `<a href="/api/health">/api/health</a>`, "POST /api/classify"} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestFavicon(t *testing.T) {
	e, _ := newTestFrontend(t)

	if rec := get(e, "/favicon.ico"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestServesStoredImages(t *testing.T) {
	e, coreService := newTestFrontend(t)

	result, err := coreService.ClassifyUpload(&core.Upload{FileName: "pixel.gif", Content: bytes.NewReader(gifData)})
	if err != nil {
		t.Fatalf("ClassifyUpload error: %v", err)
	}

	path := strings.TrimPrefix(result.ImageURL, "http://localhost:3000")
	rec := get(e, path)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for %s, got %d", path, rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), gifData) {
		t.Fatalf("served content differs from upload")
	}
}
