package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docdialog/internal/config"
	"github.com/dgallion1/docdialog/internal/converse"
	"github.com/dgallion1/docdialog/internal/extract"
	"github.com/dgallion1/docdialog/internal/pipeline"
	"github.com/dgallion1/docdialog/internal/store"
)

const testKey = "test-key"

const upload = "Cholera is an acute diarrhoeal infection. Symptoms of cholera include watery diarrhea and vomiting. " +
	"Treatment of cholera includes oral rehydration salts. Cholera is caused by contaminated water."

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	st := store.OpenMemory(t)

	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.ImageDir = t.TempDir()
	cfg.Seed = 1

	orch := pipeline.NewOrchestrator(cfg, pipeline.NewRunner(cfg, st, nil, log), log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, st, log, cfg), st
}

func do(t *testing.T, srv http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth_NoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/facts", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/facts", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid api key")
}

func TestSubmitRun_EndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)

	body, ct := multipartBody(t, "cholera.txt", upload, map[string]string{"max_facts": "10", "conversations": "2"})
	rec := do(t, srv, http.MethodPost, "/api/runs", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.JobID)
	require.Equal(t, "/api/runs/"+accepted.JobID, accepted.PollURL)

	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = do(t, srv, http.MethodGet, accepted.PollURL, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		require.True(t, time.Now().Before(deadline), "job did not finish, last status %s", snap.Status)
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, pipeline.StatusCompleted, snap.Status, "errors: %v", snap.Progress.Errors)
	require.Equal(t, 4, snap.Progress.Facts)
	require.Equal(t, 1, snap.Progress.Conversations)
	require.NotEmpty(t, snap.ContentHash)

	rec = do(t, srv, http.MethodGet, "/api/facts?category=symptoms", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var facts struct {
		QAPairs []extract.Fact `json:"qa_pairs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &facts))
	require.Len(t, facts.QAPairs, 1)
	require.Equal(t, "What are the symptoms of cholera?", facts.QAPairs[0].Question)

	rec = do(t, srv, http.MethodGet, "/api/facts/qa_001", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fact extract.Fact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fact))
	require.Equal(t, "cholera.txt", fact.SourceDocument)

	rec = do(t, srv, http.MethodGet, "/api/conversations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var convs struct {
		Conversations []converse.Conversation `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
	require.Len(t, convs.Conversations, 1)

	rec = do(t, srv, http.MethodGet, "/api/conversations/"+convs.Conversations[0].ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Store  store.Stats                                  `json:"store"`
		Stages map[pipeline.Stage]pipeline.StatsSnapshot `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 4, stats.Store.Facts)
	require.Equal(t, 1, stats.Store.Runs)
	require.Equal(t, 1, stats.Stages[pipeline.StageExtract].Count)
}

func TestSubmitRun_Rejections(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name     string
		filename string
		fields   map[string]string
	}{
		{"unsupported extension", "sheet.xlsx", nil},
		{"zero max facts", "a.txt", map[string]string{"max_facts": "0"}},
		{"bad max facts", "a.txt", map[string]string{"max_facts": "many"}},
		{"negative conversations", "a.txt", map[string]string{"conversations": "-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename, upload, tt.fields)
			rec := do(t, srv, http.MethodPost, "/api/runs", body, ct)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api/runs/nope", "/api/facts/qa_999", "/api/conversations/conv_999"} {
		rec := do(t, srv, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestListFacts_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/facts?category=prognosis", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/facts?limit=-1", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/facts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"qa_pairs":[]}`, rec.Body.String())
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":           "report.pdf",
		"../../etc/passwd.txt": "passwd.txt",
		"":                     "unnamed",
		"a..b.md":              "a_b.md",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
