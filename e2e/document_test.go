package e2e

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/axiomflow/api/internal/service"
)

type fakeStorage struct {
	deleted []string
}

func (f *fakeStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (f *fakeStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) GetSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://cdn.test/signed/" + key, nil
}

func (f *fakeStorage) GetPublicURL(key string) string { return "https://cdn.test/" + key }

func TestGetDocumentNotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/documents/does-not-exist", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestGetDocument(t *testing.T) {
	ta := setupApp(t)
	record := seedDocument(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/documents/"+record.Document.ID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	doc, ok := result["document"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected document object, got %v", result)
	}
	if doc["id"] != record.Document.ID {
		t.Errorf("expected id %s, got %v", record.Document.ID, doc["id"])
	}
	if doc["num_pages"] != float64(2) {
		t.Errorf("expected 2 pages, got %v", doc["num_pages"])
	}

	pages, ok := result["pages"].([]interface{})
	if !ok || len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %v", result["pages"])
	}
}

func TestEditBlock(t *testing.T) {
	ta := setupApp(t)
	record := seedDocument(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodPatch,
		"/api/documents/"+record.Document.ID+"/blocks/b2",
		`{"translation": "主流的序列转换模型基于循环网络。"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNoContent)

	updated, err := ta.docs.GetRecord(context.Background(), record.Document.ID)
	if err != nil {
		t.Fatalf("failed to reload document: %v", err)
	}

	b2 := updated.Pages[0].Blocks[1]
	if b2.Translation != "主流的序列转换模型基于循环网络。" {
		t.Errorf("translation not applied: %q", b2.Translation)
	}
	if !b2.Edited {
		t.Error("expected block to be marked edited")
	}
	// b4 shares the same source but apply_all_same_source was not set
	if updated.Pages[1].Blocks[0].Translation != "" {
		t.Error("translation leaked to another block")
	}
}

func TestEditBlockApplyAll(t *testing.T) {
	ta := setupApp(t)
	record := seedDocument(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodPatch,
		"/api/documents/"+record.Document.ID+"/blocks/b2",
		`{"translation": "主流模型", "apply_all_same_source": true}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNoContent)

	updated, err := ta.docs.GetRecord(context.Background(), record.Document.ID)
	if err != nil {
		t.Fatalf("failed to reload document: %v", err)
	}

	// b4 on page 2 has the same source text as b2
	b4 := updated.Pages[1].Blocks[0]
	if b4.Translation != "主流模型" {
		t.Errorf("expected apply-all to propagate, got %q", b4.Translation)
	}
}

func TestEditBlockNotFound(t *testing.T) {
	ta := setupApp(t)
	record := seedDocument(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodPatch,
		"/api/documents/"+record.Document.ID+"/blocks/no-such-block",
		`{"translation": "x"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestDeleteDocument(t *testing.T) {
	ta := setupApp(t)
	record := seedDocument(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodDelete, "/api/documents/"+record.Document.ID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNoContent)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/documents/"+record.Document.ID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	// Deleting again reports not found
	resp, err = doAuthRequest(t, ta.app, http.MethodDelete, "/api/documents/"+record.Document.ID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

// The storage key persisted with the record must drive remote cleanup
// when the document is deleted.
func TestDeleteDocumentCleansUpStoredObject(t *testing.T) {
	ta := setupApp(t)
	record := seedDocument(t, ta)
	ctx := context.Background()

	fs := &fakeStorage{}
	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	docs := service.NewDocumentService(redisClient, fs, t.TempDir())

	key := "uploads/" + record.Document.ID + ".pdf"
	record.Document.StorageKey = key
	if err := docs.SaveRecord(ctx, record); err != nil {
		t.Fatalf("failed to save record: %v", err)
	}

	if err := docs.Delete(ctx, record.Document.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if len(fs.deleted) != 1 || fs.deleted[0] != key {
		t.Errorf("expected stored object %q deleted, got %v", key, fs.deleted)
	}
	if _, err := docs.GetRecord(ctx, record.Document.ID); err == nil {
		t.Error("expected record gone after delete")
	}
}

func TestDocumentProgress(t *testing.T) {
	ta := setupApp(t)
	record := seedDocument(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet,
		"/api/documents/"+record.Document.ID+"/progress", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["status"] != "parsed" {
		t.Errorf("expected status parsed, got %v", result["status"])
	}
	if result["parse_progress"] != float64(100) {
		t.Errorf("expected parse_progress 100, got %v", result["parse_progress"])
	}
}
