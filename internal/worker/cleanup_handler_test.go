package worker_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ShengNW/interviewer/internal/database"
	"github.com/ShengNW/interviewer/internal/resume"
	"github.com/ShengNW/interviewer/internal/tasks"
	"github.com/ShengNW/interviewer/internal/worker"
)

const testOwner = "0xAliceAliceAliceAliceAliceAliceAliceAlice"

type fakeDeleter struct {
	deleted []string
}

func (d *fakeDeleter) DeleteDocuments(_ context.Context, nodeID string) error {
	d.deleted = append(d.deleted, nodeID)
	return nil
}

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

func TestProcessTask_CleansDeletedSubtree(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	manager := resume.NewManager(db, nil)

	root, err := manager.CreateRoot(ctx, testOwner, "root", nil, nil)
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	child, err := manager.Fork(ctx, root.ID, testOwner)
	if err != nil {
		t.Fatalf("fork child: %v", err)
	}
	grandchild, err := manager.Fork(ctx, child.ID, testOwner)
	if err != nil {
		t.Fatalf("fork grandchild: %v", err)
	}

	// 删除子树，根节点存活。
	if _, err := manager.DeleteTree(ctx, child.ID, testOwner); err != nil {
		t.Fatalf("delete subtree: %v", err)
	}

	deleter := &fakeDeleter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := worker.NewCleanupTaskHandler(db, deleter, logger)

	task, err := tasks.NewDocumentCleanupTask(child.ID, "test-correlation")
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := h.ProcessTask(ctx, task); err != nil {
		t.Fatalf("process task: %v", err)
	}

	sort.Strings(deleter.deleted)
	want := []string{child.ID, grandchild.ID}
	sort.Strings(want)
	if len(deleter.deleted) != 2 || deleter.deleted[0] != want[0] || deleter.deleted[1] != want[1] {
		t.Fatalf("expected documents of %v cleaned, got %v", want, deleter.deleted)
	}
	for _, id := range deleter.deleted {
		if id == root.ID {
			t.Fatalf("surviving root must not be cleaned")
		}
	}
}
