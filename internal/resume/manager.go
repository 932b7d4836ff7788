package resume

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShengNW/interviewer/internal/database"
)

// RoomLinker 是面试间协作方的最小接口。
// 面试间与会话复用同一套所有权契约，但不属于版本树。
type RoomLinker interface {
	GetRoom(ctx context.Context, roomID string) (*database.Room, error)
	SetResumeReference(ctx context.Context, roomID, resumeID string) error
	CountLinkedRooms(ctx context.Context, owner string) (int64, error)
}

// Manager 编排版本树的全部读写操作。
// 每个变更序列（建根+空内容、fork+内容拷贝、级联删除的遍历+批量标记、
// 编辑的降级+写入）都在一个数据库事务里执行：要么全部生效，要么全部丢弃。
// 所有操作都显式接收调用者身份，不读取任何会话态。
type Manager struct {
	db       *gorm.DB
	store    *TreeStore
	contents *ContentRepository
	rooms    RoomLinker
}

// NewManager 构造 Manager。rooms 可以为 nil（纯树场景或测试）。
func NewManager(db *gorm.DB, rooms RoomLinker) *Manager {
	return &Manager{
		db:       db,
		store:    NewTreeStore(db),
		contents: NewContentRepository(db),
		rooms:    rooms,
	}
}

// TreeView 是 ListTrees 返回的嵌套视图节点。
type TreeView struct {
	ID             string      `json:"id"`
	ParentID       *string     `json:"parent_id"`
	RootID         string      `json:"root_id"`
	Depth          int         `json:"depth"`
	Name           string      `json:"name"`
	Status         string      `json:"status"`
	TargetCompany  *string     `json:"target_company,omitempty"`
	TargetPosition *string     `json:"target_position,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Children       []*TreeView `json:"children"`
}

// Stats 汇总某个所有者的简历统计。
type Stats struct {
	Total       int64 `json:"total"`
	Published   int64 `json:"published"`
	Draft       int64 `json:"draft"`
	LinkedRooms int64 `json:"linked_rooms"`
}

// CreateRoot 创建一棵新树的根节点，并在同一事务里建立空内容记录。
func (m *Manager) CreateRoot(ctx context.Context, owner, name string, targetCompany, targetPosition *string) (*database.Resume, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErr("resume name is required")
	}

	id := uuid.NewString()
	node := &database.Resume{
		ID:             id,
		ParentID:       nil,
		RootID:         id,
		Depth:          0,
		Name:           name,
		OwnerAddress:   owner,
		Status:         database.StatusDraft,
		TargetCompany:  targetCompany,
		TargetPosition: targetPosition,
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := m.store.WithTx(tx).Insert(ctx, node); err != nil {
			return err
		}
		return m.contents.WithTx(tx).CreateEmpty(ctx, node.ID)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Fork 在 parent 下创建子版本，内容为父节点内容的独立快照。
// 子节点名称是 8 位 MMddHHmm 时间戳，兄弟之间允许重名。
func (m *Manager) Fork(ctx context.Context, parentID, requester string) (*database.Resume, error) {
	var child *database.Resume
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 在事务内重新加载父节点，fork 与级联删除竞争时以事务结果为准。
		parent, err := m.store.WithTx(tx).Get(ctx, parentID)
		if err != nil {
			return err
		}
		if err := Authorize(requester, parent); err != nil {
			return err
		}
		if parent.Depth >= MaxDepth-1 {
			return ErrDepthLimitExceeded
		}

		child = &database.Resume{
			ID:             uuid.NewString(),
			ParentID:       &parent.ID,
			RootID:         parent.RootID,
			Depth:          parent.Depth + 1,
			Name:           time.Now().Format("01021504"),
			OwnerAddress:   requester,
			Status:         database.StatusDraft,
			TargetCompany:  parent.TargetCompany,
			TargetPosition: parent.TargetPosition,
		}
		if err := m.store.WithTx(tx).Insert(ctx, child); err != nil {
			return err
		}
		return m.contents.WithTx(tx).Copy(ctx, parent.ID, child.ID)
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}

// DeleteTree 把节点及其全部存活后代标记为 deleted，返回标记数量。
// 遍历与批量标记在同一事务内完成；内容记录保留为孤儿墓碑。
// 这是唯一的级联破坏性操作，本层不提供恢复。
func (m *Manager) DeleteTree(ctx context.Context, nodeID, requester string) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := m.store.WithTx(tx)

		node, err := store.Get(ctx, nodeID)
		if err != nil {
			return err
		}
		if err := Authorize(requester, node); err != nil {
			return err
		}

		// 迭代遍历子节点索引，先算出整个待删集合再统一标记。
		ids := []string{node.ID}
		queue := []string{node.ID}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			children, err := store.Children(ctx, current)
			if err != nil {
				return err
			}
			for _, c := range children {
				ids = append(ids, c.ID)
				queue = append(queue, c.ID)
			}
		}

		count, err = store.MarkDeleted(ctx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Publish 把节点标记为 published。
// 内容为空也允许发布，发布只承诺内容记录存在，不承诺非空。
func (m *Manager) Publish(ctx context.Context, nodeID, requester string) error {
	return m.setStatus(ctx, nodeID, requester, database.StatusPublished)
}

// Unpublish 把节点退回 draft。对本来就是 draft 的节点幂等。
func (m *Manager) Unpublish(ctx context.Context, nodeID, requester string) error {
	return m.setStatus(ctx, nodeID, requester, database.StatusDraft)
}

func (m *Manager) setStatus(ctx context.Context, nodeID, requester, status string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := m.store.WithTx(tx)
		node, err := store.Get(ctx, nodeID)
		if err != nil {
			return err
		}
		if err := Authorize(requester, node); err != nil {
			return err
		}
		if node.Status == status {
			return nil
		}
		return store.UpdateStatus(ctx, nodeID, status)
	})
}

// UpdateContent 把 update 中给出的字段写入节点内容。
// 已发布节点先降级回 draft 再写入：发布版本不允许被悄悄改动。
func (m *Manager) UpdateContent(ctx context.Context, nodeID, requester string, update ContentUpdate) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := m.store.WithTx(tx)
		node, err := store.Get(ctx, nodeID)
		if err != nil {
			return err
		}
		if err := Authorize(requester, node); err != nil {
			return err
		}
		if node.Status == database.StatusPublished {
			if err := store.UpdateStatus(ctx, nodeID, database.StatusDraft); err != nil {
				return err
			}
		}
		return m.contents.WithTx(tx).Upsert(ctx, nodeID, update)
	})
}

// GetNode 返回调用者拥有的单个节点。
func (m *Manager) GetNode(ctx context.Context, nodeID, requester string) (*database.Resume, error) {
	node, err := m.store.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(requester, node); err != nil {
		return nil, err
	}
	return node, nil
}

// GetContent 返回节点的结构化内容；没有记录时返回空内容。
func (m *Manager) GetContent(ctx context.Context, nodeID, requester string) (*Content, error) {
	if _, err := m.GetNode(ctx, nodeID, requester); err != nil {
		return nil, err
	}
	content, err := m.contents.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		content = &Content{}
	}
	return content, nil
}

// LinkToRoom 把已发布的节点关联到面试间。
// 节点与面试间分别做所有权校验，节点必须处于 published。
func (m *Manager) LinkToRoom(ctx context.Context, nodeID, roomID, requester string) error {
	node, err := m.store.Get(ctx, nodeID)
	if err != nil {
		return err
	}
	if err := Authorize(requester, node); err != nil {
		return err
	}
	if node.Status != database.StatusPublished {
		return ErrNotPublished
	}
	if m.rooms == nil {
		return storageErr("link to room", errRoomLinkerMissing)
	}

	room, err := m.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := Authorize(requester, room); err != nil {
		return err
	}

	return m.rooms.SetResumeReference(ctx, roomID, nodeID)
}

// ListTrees 返回调用者的整片森林（嵌套视图），按创建时间升序。
// 墓碑节点完全排除在外，包括父子邻接关系：父节点被删而自身存活的
// 节点不会出现在任何树里。
func (m *Manager) ListTrees(ctx context.Context, owner string) ([]*TreeView, error) {
	nodes, err := m.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	views := make(map[string]*TreeView, len(nodes))
	for i := range nodes {
		views[nodes[i].ID] = newTreeView(&nodes[i])
	}

	roots := make([]*TreeView, 0)
	for i := range nodes {
		view := views[nodes[i].ID]
		if nodes[i].ParentID == nil {
			roots = append(roots, view)
			continue
		}
		if parent, ok := views[*nodes[i].ParentID]; ok {
			parent.Children = append(parent.Children, view)
		}
		// 父节点不在存活集合里：孤儿，不挂载。
	}
	return roots, nil
}

// GetAvailablePublished 返回调用者的已发布节点，按更新时间倒序。
func (m *Manager) GetAvailablePublished(ctx context.Context, owner string) ([]database.Resume, error) {
	return m.store.ListPublishedByOwner(ctx, owner)
}

// GetStats 汇总调用者的非墓碑节点数量与关联面试间数量。
func (m *Manager) GetStats(ctx context.Context, owner string) (Stats, error) {
	total, err := m.store.CountByOwner(ctx, owner, "")
	if err != nil {
		return Stats{}, err
	}
	published, err := m.store.CountByOwner(ctx, owner, database.StatusPublished)
	if err != nil {
		return Stats{}, err
	}
	draft, err := m.store.CountByOwner(ctx, owner, database.StatusDraft)
	if err != nil {
		return Stats{}, err
	}

	var linked int64
	if m.rooms != nil {
		linked, err = m.rooms.CountLinkedRooms(ctx, owner)
		if err != nil {
			return Stats{}, err
		}
	}

	return Stats{
		Total:       total,
		Published:   published,
		Draft:       draft,
		LinkedRooms: linked,
	}, nil
}

func newTreeView(node *database.Resume) *TreeView {
	return &TreeView{
		ID:             node.ID,
		ParentID:       node.ParentID,
		RootID:         node.RootID,
		Depth:          node.Depth,
		Name:           node.Name,
		Status:         node.Status,
		TargetCompany:  node.TargetCompany,
		TargetPosition: node.TargetPosition,
		CreatedAt:      node.CreatedAt,
		UpdatedAt:      node.UpdatedAt,
		Children:       []*TreeView{},
	}
}
