package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lessonlint/lessonlint/internal/config"
	"github.com/lessonlint/lessonlint/internal/lint"
	"github.com/lessonlint/lessonlint/internal/pipeline"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		Port:           "0",
		APIKey:         testAPIKey,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Minute,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, lint.DefaultConfig(), nil, nil, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, nil, log, cfg)
}

func multipartBody(t *testing.T, field, filename, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(contents)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func TestHealth_NoAuthRequired(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_Missing(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}
}

func TestAuth_WrongKey(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := doRequest(srv, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %d", rec.Code)
	}
}

func TestLint_EndToEnd(t *testing.T) {
	srv := newTestServer(t)

	lesson := "# Page Lifecycle\n\nSome intro text.\n"
	body, contentType := multipartBody(t, "file", "lesson.md", lesson)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/lint", body))
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(srv, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var accepted struct {
		JobID   string `json:"job_id"`
		Status  string `json:"status"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode accept response: %v", err)
	}
	if accepted.JobID == "" || accepted.Status == "" || accepted.PollURL == "" {
		t.Fatalf("incomplete accept response: %+v", accepted)
	}

	status := waitForJob(t, srv, accepted.JobID)
	if status != string(pipeline.StatusCompleted) {
		t.Fatalf("expected completed job, got %s", status)
	}

	rec = doRequest(srv, authed(httptest.NewRequest(http.MethodGet, "/api/lint/"+accepted.JobID+"/report", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 report, got %d: %s", rec.Code, rec.Body.String())
	}
	var rpt struct {
		Passed bool `json:"passed"`
		Files  []struct {
			Filename string `json:"filename"`
		} `json:"files"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rpt); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !rpt.Passed || len(rpt.Files) != 1 || rpt.Files[0].Filename != "lesson.md" {
		t.Errorf("unexpected report: %+v", rpt)
	}
}

func TestLint_UnsupportedExtension(t *testing.T) {
	srv := newTestServer(t)
	body, contentType := multipartBody(t, "file", "data.csv", "a,b,c")
	req := authed(httptest.NewRequest(http.MethodPost, "/api/lint", body))
	req.Header.Set("Content-Type", contentType)
	if rec := doRequest(srv, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLint_MissingFileField(t *testing.T) {
	srv := newTestServer(t)
	body, contentType := multipartBody(t, "other", "lesson.md", "# T\n")
	req := authed(httptest.NewRequest(http.MethodPost, "/api/lint", body))
	req.Header.Set("Content-Type", contentType)
	if rec := doRequest(srv, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBatchLint(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, contents := range map[string]string{
		"turbo.md": "# Turbo\n\nSee [the intro](./intro.md).\n",
		"intro.md": "# Intro\n\nWelcome.\n",
		"skip.csv": "a,b",
	} {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(contents))
	}
	mw.Close()

	req := authed(httptest.NewRequest(http.MethodPost, "/api/lint/batch", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := doRequest(srv, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID    string           `json:"job_id"`
		Files    []string         `json:"files"`
		Rejected []map[string]any `json:"rejected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode accept response: %v", err)
	}
	if len(accepted.Files) != 2 {
		t.Errorf("expected 2 accepted files, got %v", accepted.Files)
	}
	if len(accepted.Rejected) != 1 {
		t.Errorf("expected 1 rejected file, got %v", accepted.Rejected)
	}

	if status := waitForJob(t, srv, accepted.JobID); status != string(pipeline.StatusCompleted) {
		t.Fatalf("expected completed batch, got %s", status)
	}
}

func TestLintStatus_UnknownJob(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, authed(httptest.NewRequest(http.MethodGet, "/api/lint/nope/status", nil)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListReports_NoStore(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, authed(httptest.NewRequest(http.MethodGet, "/api/reports", nil)))
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 without a report store, got %d", rec.Code)
	}
}

func TestLinkCheckStats_Disabled(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, authed(httptest.NewRequest(http.MethodGet, "/api/stats/linkcheck", nil)))
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 with link checking off, got %d", rec.Code)
	}
}

// waitForJob polls the status endpoint until the job leaves the active states.
func waitForJob(t *testing.T, srv *Server, jobID string) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := doRequest(srv, authed(httptest.NewRequest(http.MethodGet, "/api/lint/"+jobID+"/status", nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status request failed: %d", rec.Code)
		}
		var snap struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		switch snap.Status {
		case string(pipeline.StatusCompleted), string(pipeline.StatusFailed), string(pipeline.StatusPartial):
			return snap.Status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return ""
}
