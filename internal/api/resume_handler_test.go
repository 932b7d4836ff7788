package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ShengNW/interviewer/internal/database"
	"github.com/ShengNW/interviewer/internal/resume"
	"github.com/ShengNW/interviewer/internal/room"
)

const (
	testOwner    = "0xAliceAliceAliceAliceAliceAliceAliceAlice"
	testIntruder = "0xBobBobBobBobBobBobBobBobBobBobBobBobBob"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestHandler(t *testing.T) (*ResumeHandler, *resume.Manager, *room.Service) {
	t.Helper()
	db := newTestDB(t)
	rooms := room.NewService(db)
	manager := resume.NewManager(db, rooms)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResumeHandler(manager, nil, logger), manager, rooms
}

func newAuthedContext(t *testing.T, w *httptest.ResponseRecorder, owner string, req *http.Request) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("ownerAddress", owner)
	return c
}

func TestCreateRootHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _, _ := newTestHandler(t)

	body := bytes.NewBufferString(`{"name":"后端简历","target_company":"Acme"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/resumes", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, testOwner, req)

	h.CreateRoot(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var resp nodeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Depth != 0 || resp.RootID != resp.ID || resp.Status != database.StatusDraft {
		t.Fatalf("unexpected root node: %+v", resp)
	}
	if resp.TargetCompany == nil || *resp.TargetCompany != "Acme" {
		t.Fatalf("target company not recorded: %+v", resp)
	}
}

func TestCreateRootHandler_MissingName(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/resumes", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, testOwner, req)

	h.CreateRoot(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestForkHandler_Forbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, manager, _ := newTestHandler(t)

	node, err := manager.CreateRoot(context.Background(), testOwner, "root", nil, nil)
	if err != nil {
		t.Fatalf("seed root: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/resumes/"+node.ID+"/fork", nil)
	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, testIntruder, req)
	c.Params = gin.Params{{Key: "id", Value: node.ID}}

	h.Fork(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteTreeHandler_ReturnsCount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, manager, _ := newTestHandler(t)
	ctx := context.Background()

	node, err := manager.CreateRoot(ctx, testOwner, "root", nil, nil)
	if err != nil {
		t.Fatalf("seed root: %v", err)
	}
	if _, err := manager.Fork(ctx, node.ID, testOwner); err != nil {
		t.Fatalf("seed child: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/v1/resumes/"+node.ID, nil)
	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, testOwner, req)
	c.Params = gin.Params{{Key: "id", Value: node.ID}}

	h.DeleteTree(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		DeletedCount int64 `json:"deleted_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DeletedCount != 2 {
		t.Fatalf("expected deleted_count 2, got %d", resp.DeletedCount)
	}
}

func TestLinkToRoomHandler_DraftConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, manager, rooms := newTestHandler(t)
	ctx := context.Background()

	node, err := manager.CreateRoot(ctx, testOwner, "root", nil, nil)
	if err != nil {
		t.Fatalf("seed root: %v", err)
	}
	r, err := rooms.CreateRoom(ctx, testOwner, "room")
	if err != nil {
		t.Fatalf("seed room: %v", err)
	}

	body := bytes.NewBufferString(`{"room_id":"` + r.ID + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/resumes/"+node.ID+"/link-room", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, testOwner, req)
	c.Params = gin.Params{{Key: "id", Value: node.ID}}

	h.LinkToRoom(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("draft link should conflict, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetNodeHandler_NotFoundAfterDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, manager, _ := newTestHandler(t)
	ctx := context.Background()

	node, err := manager.CreateRoot(ctx, testOwner, "root", nil, nil)
	if err != nil {
		t.Fatalf("seed root: %v", err)
	}
	if _, err := manager.DeleteTree(ctx, node.ID, testOwner); err != nil {
		t.Fatalf("delete: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/resumes/"+node.ID, nil)
	w := httptest.NewRecorder()
	c := newAuthedContext(t, w, testOwner, req)
	c.Params = gin.Params{{Key: "id", Value: node.ID}}

	h.GetNode(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("tombstone should read as missing, got %d body=%s", w.Code, w.Body.String())
	}
}
