// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/shopranker/internal/logging"
)

func serveRequestID(t *testing.T, incoming string) (header, inContext string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inContext = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	if incoming != "" {
		req.Header.Set(RequestIDHeader, incoming)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header().Get(RequestIDHeader), inContext
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	t.Parallel()
	header, ctxID := serveRequestID(t, "")
	if _, err := uuid.Parse(header); err != nil {
		t.Errorf("X-Request-ID %q is not a UUID: %v", header, err)
	}
	if ctxID != header {
		t.Errorf("context id %q != header %q", ctxID, header)
	}
}

func TestRequestID_PreservesExistingID(t *testing.T) {
	t.Parallel()
	header, ctxID := serveRequestID(t, "edge-proxy-42")
	if header != "edge-proxy-42" || ctxID != "edge-proxy-42" {
		t.Errorf("header = %q, context = %q", header, ctxID)
	}
}

func TestRequestID_ReplacesUnsafeID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		id   string
	}{
		{"control characters", "abc\x01def"},
		{"too long", strings.Repeat("x", maxRequestIDLen+1)},
		{"blank", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			header, _ := serveRequestID(t, tt.id)
			if _, err := uuid.Parse(header); err != nil {
				t.Errorf("unsafe id %q was kept as %q", tt.id, header)
			}
		})
	}
}

func TestRequestID_Unique(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, _ := serveRequestID(t, "")
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
