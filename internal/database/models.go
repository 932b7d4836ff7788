package database

import (
	"time"

	"gorm.io/datatypes"
)

// Resume 表示简历版本树中的一个节点。
// 根节点 ParentID 为空且 RootID == ID；子节点由 fork 产生，
// 同一棵树内所有节点的 OwnerAddress 一致。
type Resume struct {
	ID             string  `gorm:"primaryKey;size:36"`
	ParentID       *string `gorm:"index;size:36"`
	RootID         string  `gorm:"index;size:36"`
	Depth          int     `gorm:"default:0"`
	Name           string  `gorm:"size:255"`
	OwnerAddress   string  `gorm:"index;size:64"`
	Status         string  `gorm:"size:32;default:draft"`
	TargetCompany  *string `gorm:"size:255"`
	TargetPosition *string `gorm:"size:255"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// 节点状态常量。deleted 是终态（墓碑），不再参与任何活跃读取。
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusDeleted   = "deleted"
)

// OwnerIdentity 返回节点归属的钱包地址。
func (r Resume) OwnerIdentity() string {
	return r.OwnerAddress
}

// ResumeContent 保存节点的结构化简历内容，与 Resume 一对一。
// 列表型字段以 JSONB 存储，结构定义见 internal/resume 的记录类型。
type ResumeContent struct {
	ID       string `gorm:"primaryKey;size:36"`
	ResumeID string `gorm:"uniqueIndex;size:36"`

	FullName string `gorm:"size:255"`
	Email    string `gorm:"size:255"`
	Phone    string `gorm:"size:64"`
	Location string `gorm:"size:255"`
	Website  string `gorm:"size:512"`
	Summary  string `gorm:"type:text"`

	Education      datatypes.JSON `gorm:"type:jsonb"`
	Experience     datatypes.JSON `gorm:"type:jsonb"`
	Projects       datatypes.JSON `gorm:"type:jsonb"`
	Skills         datatypes.JSON `gorm:"type:jsonb"`
	Certifications datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Room 表示面试间。ResumeID 是对已发布简历节点的回引。
type Room struct {
	ID           string  `gorm:"primaryKey;size:36"`
	Name         string  `gorm:"size:255"`
	OwnerAddress string  `gorm:"index;size:64"`
	ResumeID     *string `gorm:"index;size:36"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnerIdentity 返回面试间归属的钱包地址。
func (r Room) OwnerIdentity() string {
	return r.OwnerAddress
}

// Session 表示面试间内的一次面试会话，所有权随所属 Room。
type Session struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:255"`
	RoomID       string `gorm:"index;size:36"`
	Room         Room   `gorm:"constraint:OnDelete:CASCADE"`
	Status       string `gorm:"size:32;default:initialized"`
	CurrentRound int    `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnerIdentity 返回会话归属的钱包地址（继承自所属面试间）。
func (s Session) OwnerIdentity() string {
	return s.Room.OwnerAddress
}
