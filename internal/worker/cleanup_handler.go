package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/ShengNW/interviewer/internal/database"
	"github.com/ShengNW/interviewer/internal/tasks"
)

// DocumentDeleter 是清理任务需要的对象存储能力。
type DocumentDeleter interface {
	DeleteDocuments(ctx context.Context, nodeID string) error
}

// CleanupTaskHandler 在子树被级联删除后，移除墓碑节点在对象存储里的
// 原始文档。节点表里的墓碑本身保留。
type CleanupTaskHandler struct {
	db      *gorm.DB
	storage DocumentDeleter
	logger  *slog.Logger
}

// NewCleanupTaskHandler 构造 CleanupTaskHandler。
func NewCleanupTaskHandler(db *gorm.DB, storage DocumentDeleter, logger *slog.Logger) *CleanupTaskHandler {
	return &CleanupTaskHandler{
		db:      db,
		storage: storage,
		logger:  logger,
	}
}

// ProcessTask 清理入口节点所在整棵树中全部墓碑节点的文档。
// 以 root_id 聚合而不是重走子树遍历：删除发生后子树关系只能从
// 墓碑集合反推，而同一棵树里的墓碑都在清理范围内。
func (h *CleanupTaskHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload tasks.DocumentCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	logger := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("node_id", payload.NodeID),
	)

	var entry database.Resume
	if err := h.db.WithContext(ctx).First(&entry, "id = ?", payload.NodeID).Error; err != nil {
		return fmt.Errorf("load node %s: %w", payload.NodeID, err)
	}

	var deleted []database.Resume
	err := h.db.WithContext(ctx).
		Where("root_id = ? AND status = ?", entry.RootID, database.StatusDeleted).
		Find(&deleted).Error
	if err != nil {
		return fmt.Errorf("list deleted nodes: %w", err)
	}

	var failed int
	for _, node := range deleted {
		if err := h.storage.DeleteDocuments(ctx, node.ID); err != nil {
			logger.Warn("delete documents", slog.String("target", node.ID), slog.Any("error", err))
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("cleanup documents: %d of %d nodes failed", failed, len(deleted))
	}

	logger.Info("document cleanup finished", slog.Int("nodes", len(deleted)))
	return nil
}
