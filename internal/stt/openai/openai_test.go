package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/user/lingualearn/internal/stt"
	"github.com/user/lingualearn/internal/stt/openai"
)

func newMockServer(t *testing.T, status int, payload any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/audio/transcriptions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format %q, want verbose_json", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranscribeVerboseSegments(t *testing.T) {
	srv := newMockServer(t, http.StatusOK, map[string]any{
		"text":     "Good morning. Let's begin.",
		"language": "english",
		"duration": 4.2,
		"segments": []map[string]any{
			{"id": 0, "start": 0.0, "end": 1.5, "text": " Good morning."},
			{"id": 1, "start": 2.0, "end": 4.2, "text": " Let's begin."},
		},
	})

	tr := openai.New("sk-test", "", openai.WithBaseURL(srv.URL))
	res, err := tr.Transcribe(context.Background(), stt.Request{
		Audio:             []byte("RIFF"),
		ContentType:       stt.ContentTypeWAV,
		IncludeTimestamps: true,
		LanguageHint:      "en",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "Good morning. Let's begin." {
		t.Fatalf("text %q", res.Text)
	}
	if len(res.Segments) != 2 || res.Segments[1].Text != "Let's begin." || res.Segments[1].End != 4.2 {
		t.Fatalf("segments %+v", res.Segments)
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := newMockServer(t, http.StatusInternalServerError, map[string]any{
		"error": map[string]any{"message": "boom", "type": "server_error"},
	})

	tr := openai.New("sk-test", "", openai.WithBaseURL(srv.URL))
	_, err := tr.Transcribe(context.Background(), stt.Request{
		Audio:             []byte("RIFF"),
		ContentType:       stt.ContentTypeWAV,
		IncludeTimestamps: true,
	})
	if err == nil {
		t.Fatal("expected error from 500 response")
	}
}

func TestAvailableRequiresKey(t *testing.T) {
	if openai.New("", "").Available() {
		t.Fatal("transcriber without key must be unavailable")
	}
}
