package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/authorworks/internal/core"
)

func TestRespondError(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantLevel  string
	}{
		{"mapped client error", core.ErrRunNotFound, http.StatusNotFound, "EXP004", "WARN"},
		{"unmapped error", errors.New("boom"), http.StatusInternalServerError, "ERR000", "ERROR"},
		{"wrapped mapped error", fmt.Errorf("target %q: %w", "oracle", core.ErrUnknownTarget), http.StatusBadRequest, "EXP005", "WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			prev := slog.Default()
			slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
			t.Cleanup(func() { slog.SetDefault(prev) })

			req := httptest.NewRequest(http.MethodGet, "/api/exports/x", nil)
			rec := httptest.NewRecorder()
			srv.respondError(rec, req, tt.err, 0)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decode[ErrorResponse](t, rec)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}

			var entry struct {
				Level string `json:"level"`
				Error string `json:"error"`
			}
			if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
				t.Fatalf("decode log %q: %v", logs.String(), err)
			}
			if entry.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", entry.Level, tt.wantLevel)
			}
			if !strings.Contains(entry.Error, tt.err.Error()) {
				t.Errorf("logged error = %q, want the technical error", entry.Error)
			}
		})
	}
}
