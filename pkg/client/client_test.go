package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/axiomflow/api/internal/model"
)

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/doc-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		json.NewEncoder(w).Encode(&model.DocumentRecord{
			Document: model.Document{ID: "doc-1", NumPages: 3, LangIn: "en", LangOut: "zh"},
			Pages: []model.Page{
				{Number: 1, Width: 612, Height: 792},
				{Number: 2, Width: 612, Height: 792},
				{Number: 3, Width: 612, Height: 792},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"))
	record, err := c.GetDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Document.ID != "doc-1" {
		t.Errorf("expected doc-1, got %s", record.Document.ID)
	}
	if len(record.Pages) != 3 {
		t.Errorf("expected 3 pages, got %d", len(record.Pages))
	}
}

// The loader contract: either a record or an error, never both, never neither.
func TestGetDocumentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"code": "NOT_FOUND", "message": "Document not found"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	record, err := c.GetDocument(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error")
	}
	if record != nil {
		t.Errorf("expected nil record alongside error, got %+v", record)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "NOT_FOUND" {
		t.Errorf("unexpected error detail: %+v", apiErr)
	}
}

func TestStartTranslation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/jobs/translate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req model.TranslateJobCreateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.DocumentID != "doc-1" || req.Provider != "google" {
			t.Errorf("unexpected request body: %+v", req)
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(&model.TranslateJobCreatedResponse{
			JobID: "job-1",
			Stage: model.JobStagePending,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.StartTranslation(context.Background(), &model.TranslateJobCreateRequest{
		DocumentID: "doc-1",
		Provider:   "google",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.JobID != "job-1" || resp.Stage != model.JobStagePending {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSourcePDFURL(t *testing.T) {
	c := New("http://api.example.com/")
	got := c.SourcePDFURL("doc-1")
	want := "http://api.example.com/api/documents/doc-1/source"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
