package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/jo-hoe/wastesort/internal/backend/classifier"
	"github.com/jo-hoe/wastesort/internal/backend/database"
	"github.com/jo-hoe/wastesort/internal/core"
	"github.com/labstack/echo/v4"
)

type classifyResponse struct {
	ID             int64                     `json:"id"`
	ImageURL       string                    `json:"imageUrl"`
	Classification classifier.Classification `json:"classification"`
	Timestamp      string                    `json:"timestamp"`
}

func newTestServer(t *testing.T, maxUploadSize string) *echo.Echo {
	t.Helper()
	cfg := &core.ServiceConfig{
		Port: 3000,
		Database: core.Database{
			Type:             "sqlite",
			ConnectionString: ":memory:",
		},
		UploadDirectory: filepath.Join(t.TempDir(), "uploads"),
		PublicBaseURL:   "http://localhost:3000",
		MaxUploadSize:   maxUploadSize,
		LogLevel:        "info",
	}
	coreService, err := core.NewCoreService(cfg)
	if err != nil {
		t.Fatalf("NewCoreService error: %v", err)
	}
	t.Cleanup(func() { _ = coreService.Close() })

	e := NewServer(cfg)
	NewAPIService(cfg, coreService).SetRoutes(e)
	return e
}

func doRequest(t *testing.T, e *echo.Echo, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, e *echo.Echo, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("json.Marshal error: %v", err)
		}
	}
	return doRequest(t, e, method, target, body, echo.MIMEApplicationJSON)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (body %s)", status, rec.Code, rec.Body.String())
	}
	got := decode[errorResponse](t, rec)
	if message != "" && got.Error != message {
		t.Fatalf("expected error %q, got %q", message, got.Error)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.RGBA{G: 180, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode error: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, fileName, partType string, content []byte) ([]byte, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if field != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName))
		header.Set("Content-Type", partType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart error: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("part.Write error: %v", err)
		}
	} else if err := writer.WriteField("note", "no image here"); err != nil {
		t.Fatalf("WriteField error: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("multipart close error: %v", err)
	}
	return body.Bytes(), writer.FormDataContentType()
}

func classify(t *testing.T, e *echo.Echo, fileName string) classifyResponse {
	t.Helper()
	body, contentType := multipartBody(t, "image", fileName, "image/png", pngBytes(t))
	rec := doRequest(t, e, http.MethodPost, "/api/classify", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("classify: expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	return decode[classifyResponse](t, rec)
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, "10M")

	rec := doRequest(t, e, http.MethodGet, "/api/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[healthResponse](t, rec)
	if got.Status != "OK" || got.Message != "Server is running" {
		t.Fatalf("unexpected health payload %+v", got)
	}
}

func TestClassify_Success(t *testing.T) {
	e := newTestServer(t, "10M")

	got := classify(t, e, "photo.png")

	if got.ID == 0 {
		t.Errorf("expected non-zero id")
	}
	if !slices.Contains(classifier.Labels, got.Classification.Category) {
		t.Errorf("unexpected category %q", got.Classification.Category)
	}
	if c := got.Classification.Confidence; c < 0.5 || c > 1.0 {
		t.Errorf("confidence %v outside [0.5, 1.0]", c)
	}
	if !strings.HasPrefix(got.ImageURL, "http://localhost:3000/uploads/") {
		t.Errorf("unexpected image URL %q", got.ImageURL)
	}
	if got.Timestamp == "" {
		t.Errorf("expected timestamp")
	}

	rec := doRequest(t, e, http.MethodGet, fmt.Sprintf("/api/waste-items/%d", got.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for stored item, got %d", rec.Code)
	}
	item := decode[database.WasteItem](t, rec)
	if item.Category != got.Classification.Category || item.ClassificationResult != got.Classification.Description {
		t.Errorf("stored item %+v does not match response %+v", item, got)
	}
}

func TestClassify_NoImage(t *testing.T) {
	e := newTestServer(t, "10M")

	body, contentType := multipartBody(t, "", "", "", nil)
	rec := doRequest(t, e, http.MethodPost, "/api/classify", body, contentType)
	expectError(t, rec, http.StatusBadRequest, "No image uploaded")

	rec = doRequest(t, e, http.MethodPost, "/api/classify", nil, "")
	expectError(t, rec, http.StatusBadRequest, "No image uploaded")
}

func TestClassify_NonImageRejected(t *testing.T) {
	e := newTestServer(t, "10M")

	body, contentType := multipartBody(t, "image", "notes.txt", "text/plain", []byte("plain text, not a picture"))
	rec := doRequest(t, e, http.MethodPost, "/api/classify", body, contentType)
	expectError(t, rec, http.StatusBadRequest, "Only images are allowed")
}

func TestClassify_BodyLimit(t *testing.T) {
	e := newTestServer(t, "1K")

	body, contentType := multipartBody(t, "image", "big.png", "image/png", bytes.Repeat([]byte{0x89}, 4096))
	rec := doRequest(t, e, http.MethodPost, "/api/classify", body, contentType)
	expectError(t, rec, http.StatusRequestEntityTooLarge, "")
}

func TestListWasteItems(t *testing.T) {
	e := newTestServer(t, "10M")

	rec := doRequest(t, e, http.MethodGet, "/api/waste-items", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", rec.Body.String())
	}

	first := classify(t, e, "first.png")
	second := classify(t, e, "second.png")

	rec = doRequest(t, e, http.MethodGet, "/api/waste-items", nil, "")
	items := decode[[]database.WasteItem](t, rec)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Newest first; equal timestamps fall back to the newer id
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Fatalf("expected order [%d %d], got [%d %d]", second.ID, first.ID, items[0].ID, items[1].ID)
	}
}

func TestGetWasteItem_NotFound(t *testing.T) {
	e := newTestServer(t, "10M")

	expectError(t, doRequest(t, e, http.MethodGet, "/api/waste-items/999", nil, ""), http.StatusNotFound, "Waste item not found")
	expectError(t, doRequest(t, e, http.MethodGet, "/api/waste-items/abc", nil, ""), http.StatusNotFound, "Waste item not found")
}

func TestUpdateWasteItem(t *testing.T) {
	e := newTestServer(t, "10M")
	created := classify(t, e, "photo.png")
	target := fmt.Sprintf("/api/waste-items/%d", created.ID)

	missing := []map[string]string{
		{"category": "metal"},
		{"classification_result": "a can"},
		{"category": "", "classification_result": "a can"},
	}
	for _, payload := range missing {
		rec := doJSON(t, e, http.MethodPut, target, payload)
		expectError(t, rec, http.StatusBadRequest, "Category and classification_result are required")
	}

	rec := doJSON(t, e, http.MethodPut, "/api/waste-items/999", map[string]string{"category": "metal", "classification_result": "a can"})
	expectError(t, rec, http.StatusNotFound, "Waste item not found")

	item := decode[database.WasteItem](t, doRequest(t, e, http.MethodGet, target, nil, ""))
	if item.Category != created.Classification.Category {
		t.Fatalf("rejected updates changed the item: %+v", item)
	}

	rec = doJSON(t, e, http.MethodPut, target, map[string]string{"category": "metal", "classification_result": "a can"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	if got := decode[messageResponse](t, rec); got.Message != "Waste item updated successfully" {
		t.Fatalf("unexpected message %q", got.Message)
	}

	updated := decode[database.WasteItem](t, doRequest(t, e, http.MethodGet, target, nil, ""))
	if updated.Category != "metal" || updated.ClassificationResult != "a can" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if !updated.Timestamp.Equal(item.Timestamp) {
		t.Fatalf("timestamp changed by update")
	}
}

func TestDeleteWasteItem_Twice(t *testing.T) {
	e := newTestServer(t, "10M")
	created := classify(t, e, "photo.png")
	target := fmt.Sprintf("/api/waste-items/%d", created.ID)

	rec := doRequest(t, e, http.MethodDelete, target, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	if got := decode[messageResponse](t, rec); got.Message != "Waste item deleted successfully" {
		t.Fatalf("unexpected message %q", got.Message)
	}

	expectError(t, doRequest(t, e, http.MethodDelete, target, nil, ""), http.StatusNotFound, "Waste item not found")
	expectError(t, doRequest(t, e, http.MethodGet, target, nil, ""), http.StatusNotFound, "Waste item not found")
}

func listCategories(t *testing.T, e *echo.Echo) []database.Category {
	t.Helper()
	rec := doRequest(t, e, http.MethodGet, "/api/categories", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	return decode[[]database.Category](t, rec)
}

func TestCategories_SeededAndDuplicateRejected(t *testing.T) {
	e := newTestServer(t, "10M")

	categories := listCategories(t, e)
	if len(categories) != len(database.DefaultCategories) {
		t.Fatalf("expected %d seeded categories, got %d", len(database.DefaultCategories), len(categories))
	}

	rec := doJSON(t, e, http.MethodPost, "/api/categories", map[string]string{"name": "plastic"})
	expectError(t, rec, http.StatusInternalServerError, "Failed to create category")

	if got := len(listCategories(t, e)); got != len(database.DefaultCategories) {
		t.Fatalf("expected category count to stay %d, got %d", len(database.DefaultCategories), got)
	}
}

func TestCategories_CRUD(t *testing.T) {
	e := newTestServer(t, "10M")

	rec := doJSON(t, e, http.MethodPost, "/api/categories", map[string]string{"description": "no name"})
	expectError(t, rec, http.StatusBadRequest, "Category name is required")

	rec = doJSON(t, e, http.MethodPost, "/api/categories", map[string]string{
		"name":                 "textile",
		"recycling_guidelines": "Donate wearable clothes.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body %s)", rec.Code, rec.Body.String())
	}
	created := decode[database.Category](t, rec)
	if created.ID == 0 || created.Name != "textile" || created.Description != nil {
		t.Fatalf("unexpected created category %+v", created)
	}
	if created.RecyclingGuidelines == nil || *created.RecyclingGuidelines != "Donate wearable clothes." {
		t.Fatalf("unexpected recycling guidelines %v", created.RecyclingGuidelines)
	}
	target := fmt.Sprintf("/api/categories/%d", created.ID)

	rec = doJSON(t, e, http.MethodPut, target, map[string]string{"description": "still no name"})
	expectError(t, rec, http.StatusBadRequest, "Category name is required")

	rec = doJSON(t, e, http.MethodPut, "/api/categories/999", map[string]string{"name": "ghost"})
	expectError(t, rec, http.StatusNotFound, "Category not found")

	rec = doJSON(t, e, http.MethodPut, target, map[string]string{"name": "textiles", "description": "Clothes and fabric"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	if got := decode[messageResponse](t, rec); got.Message != "Category updated successfully" {
		t.Fatalf("unexpected message %q", got.Message)
	}

	rec = doRequest(t, e, http.MethodDelete, target, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	expectError(t, doRequest(t, e, http.MethodDelete, target, nil, ""), http.StatusNotFound, "Category not found")
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	e := newTestServer(t, "10M")

	rec := doRequest(t, e, http.MethodGet, "/api/does-not-exist", nil, "")
	expectError(t, rec, http.StatusNotFound, "Not Found")
}
