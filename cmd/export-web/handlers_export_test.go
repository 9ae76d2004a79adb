package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lunahq/creator-export/internal/export"
)

// stubFetcher serves one PNG for every request, or a fixed error.
type stubFetcher struct {
	data []byte
	err  error
}

func (s *stubFetcher) Fetch(_ context.Context, _ export.SourceImage) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func stubPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode stub image: %v", err)
	}
	return buf.Bytes()
}

func newTestServer(fetcher export.Fetcher) *server {
	return &server{runner: &export.Runner{Fetch: fetcher}}
}

func postExport(t *testing.T, srv *server, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/export", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.handleExport(rec, req)
	return rec
}

func TestHandleExportSuccess(t *testing.T) {
	srv := newTestServer(&stubFetcher{data: stubPNG(t)})

	rec := postExport(t, srv, map[string]interface{}{
		"images": []map[string]string{
			{"filename": "photo.png", "url": "https://cdn.example.com/photo.png"},
		},
		"platforms":       []string{"twitter"},
		"captionTemplate": "Check out {{model_name}}!",
		"variables":       map[string]interface{}{"model_name": "Luna"},
		"exportName":      "test drop",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}
	if got := rec.Header().Get("X-Export-Platforms"); got != "twitter" {
		t.Errorf("X-Export-Platforms = %q, want twitter", got)
	}
	if got := rec.Header().Get("X-Export-File-Count"); got == "" || got == "0" {
		t.Errorf("X-Export-File-Count = %q, want non-zero", got)
	}

	data := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("response is not a readable ZIP: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["twitter/photo.jpg"] || !names["twitter/photo.txt"] {
		t.Errorf("archive entries = %v, want twitter/photo.jpg and twitter/photo.txt", names)
	}
}

func TestHandleExportValidationError(t *testing.T) {
	srv := newTestServer(&stubFetcher{data: stubPNG(t)})

	rec := postExport(t, srv, map[string]interface{}{
		"images":    []map[string]string{},
		"platforms": []string{},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error body: %v", err)
	}
	if body.Details["images"] == "" || body.Details["platforms"] == "" {
		t.Errorf("details = %v, want field-level messages for images and platforms", body.Details)
	}
}

func TestHandleExportNoContent(t *testing.T) {
	srv := newTestServer(&stubFetcher{err: errors.New("unreachable")})

	rec := postExport(t, srv, map[string]interface{}{
		"images": []map[string]string{
			{"filename": "photo.png", "url": "https://cdn.example.com/photo.png"},
		},
		"platforms": []string{"twitter"},
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no content processed") {
		t.Errorf("body = %s, want no-content message", rec.Body.String())
	}
}

func TestHandleExportBadJSON(t *testing.T) {
	srv := newTestServer(&stubFetcher{data: stubPNG(t)})

	req := httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.handleExport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleExportMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&stubFetcher{data: stubPNG(t)})

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	rec := httptest.NewRecorder()
	srv.handleExport(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandlePlatforms(t *testing.T) {
	srv := newTestServer(&stubFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/export/platforms", nil)
	rec := httptest.NewRecorder()
	srv.handlePlatforms(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Platforms []struct {
			ID           string `json:"id"`
			DisplayName  string `json:"displayName"`
			Width        int    `json:"width"`
			Height       int    `json:"height"`
			CaptionLimit int    `json:"captionLimit"`
			FolderName   string `json:"folderName"`
		} `json:"platforms"`
		CaptionVariables []string `json:"captionVariables"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if len(body.Platforms) != 8 {
		t.Errorf("platforms = %d, want 8", len(body.Platforms))
	}
	if len(body.CaptionVariables) == 0 {
		t.Error("captionVariables is empty")
	}
	for _, p := range body.Platforms {
		if p.ID == "" || p.Width <= 0 || p.Height <= 0 || p.CaptionLimit <= 0 {
			t.Errorf("incomplete platform projection: %+v", p)
		}
	}
}

func TestHandlePlatformsMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&stubFetcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/export/platforms", nil)
	rec := httptest.NewRecorder()
	srv.handlePlatforms(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
