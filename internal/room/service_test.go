package room_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ShengNW/interviewer/internal/database"
	"github.com/ShengNW/interviewer/internal/resume"
	"github.com/ShengNW/interviewer/internal/room"
)

const (
	ownerAlice = "0xAliceAliceAliceAliceAliceAliceAliceAlice"
	ownerBob   = "0xBobBobBobBobBobBobBobBobBobBobBobBobBob"
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

func TestCreateRoom_DefaultName(t *testing.T) {
	ctx := context.Background()
	svc := room.NewService(newTestDB(t))

	r, err := svc.CreateRoom(ctx, ownerAlice, "   ")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if r.Name != "面试间" {
		t.Fatalf("blank name should fall back to default, got %q", r.Name)
	}
	if r.OwnerAddress != ownerAlice {
		t.Fatalf("owner not recorded, got %q", r.OwnerAddress)
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := room.NewService(newTestDB(t))

	if _, err := svc.GetRoom(ctx, "no-such-room"); !errors.Is(err, resume.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetResumeReference_MissingRoom(t *testing.T) {
	ctx := context.Background()
	svc := room.NewService(newTestDB(t))

	if err := svc.SetResumeReference(ctx, "no-such-room", "some-resume"); !errors.Is(err, resume.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	svc := room.NewService(newTestDB(t))

	r, err := svc.CreateRoom(ctx, ownerAlice, "Acme 一面")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	session, err := svc.CreateSession(ctx, r.ID, ownerAlice, "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Name != "面试会话" {
		t.Fatalf("blank session name should fall back to default, got %q", session.Name)
	}
	if session.RoomID != r.ID {
		t.Fatalf("session room id mismatch: %s", session.RoomID)
	}
	if session.OwnerIdentity() != ownerAlice {
		t.Fatalf("session ownership should follow the room, got %q", session.OwnerIdentity())
	}

	// 会话的所有权校验随面试间走。
	if _, err := svc.CreateSession(ctx, r.ID, ownerBob, "旁听"); !errors.Is(err, resume.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.ListSessionsByRoom(ctx, r.ID, ownerBob); !errors.Is(err, resume.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	sessions, err := svc.ListSessionsByRoom(ctx, r.ID, ownerAlice)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != session.ID {
		t.Fatalf("expected the created session, got %+v", sessions)
	}

	loaded, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if loaded.Room.ID != r.ID {
		t.Fatalf("get session should preload room, got %+v", loaded.Room)
	}
}
