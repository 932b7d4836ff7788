package resume

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ShengNW/interviewer/internal/database"
)

// TreeStore 负责节点表的读写：按 ID 取节点、插入、批量改状态、
// 父节点->子节点索引查询、按所有者扫描。
// 写路径通过 WithTx 绑定到事务句柄，由 Manager 组合成原子单元。
type TreeStore struct {
	db *gorm.DB
}

// NewTreeStore 构造 TreeStore。
func NewTreeStore(db *gorm.DB) *TreeStore {
	return &TreeStore{db: db}
}

// WithTx 返回绑定到给定事务的副本。
func (s *TreeStore) WithTx(tx *gorm.DB) *TreeStore {
	return &TreeStore{db: tx}
}

// Get 按 ID 返回非墓碑节点；节点不存在或已删除时返回 ErrNotFound。
func (s *TreeStore) Get(ctx context.Context, id string) (*database.Resume, error) {
	var node database.Resume
	err := s.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, database.StatusDeleted).
		First(&node).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, storageErr("query node", err)
	}
	return &node, nil
}

// Insert 写入一个新节点。
func (s *TreeStore) Insert(ctx context.Context, node *database.Resume) error {
	if err := s.db.WithContext(ctx).Create(node).Error; err != nil {
		return storageErr("insert node", err)
	}
	return nil
}

// Children 返回指定节点的全部非墓碑子节点。
func (s *TreeStore) Children(ctx context.Context, parentID string) ([]database.Resume, error) {
	var children []database.Resume
	err := s.db.WithContext(ctx).
		Where("parent_id = ? AND status <> ?", parentID, database.StatusDeleted).
		Find(&children).Error
	if err != nil {
		return nil, storageErr("query children", err)
	}
	return children, nil
}

// MarkDeleted 将给定 ID 集合中仍然存活的节点批量标记为 deleted，
// 返回实际标记的行数。WHERE 条件同时完成标记前的存活复查，
// 避免把并发窗口里已经处理过的节点重复计数。
func (s *TreeStore) MarkDeleted(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("id IN ? AND status <> ?", ids, database.StatusDeleted).
		Update("status", database.StatusDeleted)
	if res.Error != nil {
		return 0, storageErr("mark deleted", res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateStatus 修改单个节点的状态。
func (s *TreeStore) UpdateStatus(ctx context.Context, id, status string) error {
	res := s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("id = ? AND status <> ?", id, database.StatusDeleted).
		Update("status", status)
	if res.Error != nil {
		return storageErr("update status", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner 按创建时间升序返回某个所有者的全部非墓碑节点。
func (s *TreeStore) ListByOwner(ctx context.Context, owner string) ([]database.Resume, error) {
	var nodes []database.Resume
	err := s.db.WithContext(ctx).
		Where("owner_address = ? AND status <> ?", owner, database.StatusDeleted).
		Order("created_at ASC").
		Find(&nodes).Error
	if err != nil {
		return nil, storageErr("list nodes by owner", err)
	}
	return nodes, nil
}

// ListPublishedByOwner 返回某个所有者的已发布节点，按更新时间倒序。
func (s *TreeStore) ListPublishedByOwner(ctx context.Context, owner string) ([]database.Resume, error) {
	var nodes []database.Resume
	err := s.db.WithContext(ctx).
		Where("owner_address = ? AND status = ?", owner, database.StatusPublished).
		Order("updated_at DESC").
		Find(&nodes).Error
	if err != nil {
		return nil, storageErr("list published nodes", err)
	}
	return nodes, nil
}

// CountByOwner 统计某个所有者处于指定状态的节点数；status 为空时
// 统计全部非墓碑节点。
func (s *TreeStore) CountByOwner(ctx context.Context, owner, status string) (int64, error) {
	q := s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("owner_address = ?", owner)
	if status == "" {
		q = q.Where("status <> ?", database.StatusDeleted)
	} else {
		q = q.Where("status = ?", status)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, storageErr("count nodes", err)
	}
	return count, nil
}
