// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var payload = strings.Repeat(`{"productId":"p1","score":1.5},`, 100)

func writePayload(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, payload)
}

func TestCompression_WithGzipAccept(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/recommendations/trending", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()

	Compression(http.HandlerFunc(writePayload)).ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q", rec.Header().Get("Content-Encoding"))
	}
	if rec.Header().Get("Vary") != "Accept-Encoding" {
		t.Errorf("Vary = %q", rec.Header().Get("Vary"))
	}
	reader, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != payload {
		t.Error("decompressed body differs")
	}
}

func TestCompression_PassThrough(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		method   string
		path     string
		encoding string
	}{
		{"no accept-encoding", http.MethodGet, "/recommendations/recent", ""},
		{"deflate only", http.MethodGet, "/recommendations/recent", "deflate"},
		{"head", http.MethodHead, "/health/live", "gzip"},
		{"metrics", http.MethodGet, "/metrics", "gzip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.encoding != "" {
				req.Header.Set("Accept-Encoding", tt.encoding)
			}
			rec := httptest.NewRecorder()
			Compression(http.HandlerFunc(writePayload)).ServeHTTP(rec, req)

			if rec.Header().Get("Content-Encoding") != "" {
				t.Errorf("Content-Encoding = %q", rec.Header().Get("Content-Encoding"))
			}
			if rec.Body.String() != payload {
				t.Error("body should pass through unchanged")
			}
		})
	}
}

func TestCompression_ImplicitStatus(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func BenchmarkCompression(b *testing.B) {
	handler := Compression(http.HandlerFunc(writePayload))
	req := httptest.NewRequest(http.MethodGet, "/recommendations/trending", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
