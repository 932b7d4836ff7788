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
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ShengNW/interviewer/internal/resume"
	"github.com/ShengNW/interviewer/internal/room"
)

type fakeDocumentStorage struct {
	uploaded map[string][]byte
}

func newFakeDocumentStorage() *fakeDocumentStorage {
	return &fakeDocumentStorage{uploaded: map[string][]byte{}}
}

func (s *fakeDocumentStorage) UploadDocument(_ context.Context, objectKey string, reader io.Reader, _ int64, _ string) (string, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectKey] = b
	return objectKey, nil
}

func (s *fakeDocumentStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeDocumentStorage) ListDocuments(_ context.Context, nodeID string) ([]string, error) {
	var keys []string
	prefix := "resume-docs/" + nodeID + "/"
	for key := range s.uploaded {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func newDocumentTestHandler(t *testing.T) (*DocumentHandler, *resume.Manager, *fakeDocumentStorage) {
	t.Helper()
	db := newTestDB(t)
	manager := resume.NewManager(db, room.NewService(db))
	storage := newFakeDocumentStorage()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewDocumentHandler(manager, storage, nil, logger, "", 5*1024*1024, 20)
	return h, manager, storage
}

func newMultipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadDocument_RejectsNonPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, manager, _ := newDocumentTestHandler(t)

	node, err := manager.CreateRoot(context.Background(), testOwner, "root", nil, nil)
	if err != nil {
		t.Fatalf("seed root: %v", err)
	}

	body, contentType := newMultipartUpload(t, "resume.docx", []byte("not a pdf"))
	req := httptest.NewRequest(http.MethodPost, "/v1/resumes/"+node.ID+"/document", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, testOwner, req)
	c.Params = gin.Params{{Key: "id", Value: node.ID}}

	h.UploadDocument(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUploadDocument_ThenDownloadLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, manager, storage := newDocumentTestHandler(t)

	node, err := manager.CreateRoot(context.Background(), testOwner, "root", nil, nil)
	if err != nil {
		t.Fatalf("seed root: %v", err)
	}

	body, contentType := newMultipartUpload(t, "resume.pdf", []byte("%PDF-1.7 fake"))
	req := httptest.NewRequest(http.MethodPost, "/v1/resumes/"+node.ID+"/document", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, testOwner, req)
	c.Params = gin.Params{{Key: "id", Value: node.ID}}

	h.UploadDocument(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 1 {
		t.Fatalf("expected one stored object, got %d", len(storage.uploaded))
	}

	linkReq := httptest.NewRequest(http.MethodGet, "/v1/resumes/"+node.ID+"/document-link", nil)
	linkW := httptest.NewRecorder()
	linkC := newAuthedContext(t, linkW, testOwner, linkReq)
	linkC.Params = gin.Params{{Key: "id", Value: node.ID}}

	h.GetDocumentLink(linkC)

	if linkW.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", linkW.Code, linkW.Body.String())
	}
	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(linkW.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.URL, "https://example.invalid/resume-docs/"+node.ID+"/") {
		t.Fatalf("unexpected link %q", resp.URL)
	}
}

func TestGetDocumentLink_NoDocument(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, manager, _ := newDocumentTestHandler(t)

	node, err := manager.CreateRoot(context.Background(), testOwner, "root", nil, nil)
	if err != nil {
		t.Fatalf("seed root: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/resumes/"+node.ID+"/document-link", nil)
	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, testOwner, req)
	c.Params = gin.Params{{Key: "id", Value: node.ID}}

	h.GetDocumentLink(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
