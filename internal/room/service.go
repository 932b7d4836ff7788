package room

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShengNW/interviewer/internal/database"
	"github.com/ShengNW/interviewer/internal/resume"
)

// Service 管理面试间与会话。这些资源没有树结构，
// 但与简历节点共用同一套所有权校验契约。
type Service struct {
	db *gorm.DB
}

// NewService 构造 Service。
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateRoom 为调用者创建一个面试间。
func (s *Service) CreateRoom(ctx context.Context, owner, name string) (*database.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "面试间"
	}
	room := &database.Room{
		ID:           uuid.NewString(),
		Name:         name,
		OwnerAddress: owner,
	}
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return nil, err
	}
	return room, nil
}

// GetRoom 按 ID 返回面试间；不存在时返回 resume.ErrNotFound。
func (s *Service) GetRoom(ctx context.Context, roomID string) (*database.Room, error) {
	var room database.Room
	err := s.db.WithContext(ctx).First(&room, "id = ?", roomID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, resume.ErrNotFound
	case err != nil:
		return nil, err
	}
	return &room, nil
}

// ListRoomsByOwner 返回调用者的全部面试间，按创建时间倒序。
func (s *Service) ListRoomsByOwner(ctx context.Context, owner string) ([]database.Room, error) {
	var rooms []database.Room
	err := s.db.WithContext(ctx).
		Where("owner_address = ?", owner).
		Order("created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// SetResumeReference 把面试间的简历回引指向给定节点。
// 发布状态校验由 VersionTreeManager 负责，这里只做写入。
func (s *Service) SetResumeReference(ctx context.Context, roomID, resumeID string) error {
	res := s.db.WithContext(ctx).
		Model(&database.Room{}).
		Where("id = ?", roomID).
		Update("resume_id", resumeID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return resume.ErrNotFound
	}
	return nil
}

// CountLinkedRooms 统计回引指向该所有者任一非墓碑节点的面试间数量。
func (s *Service) CountLinkedRooms(ctx context.Context, owner string) (int64, error) {
	sub := s.db.Model(&database.Resume{}).
		Select("id").
		Where("owner_address = ? AND status <> ?", owner, database.StatusDeleted)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&database.Room{}).
		Where("resume_id IN (?)", sub).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CreateSession 在面试间内创建一次会话，所有权随面试间。
func (s *Service) CreateSession(ctx context.Context, roomID, requester, name string) (*database.Session, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := resume.Authorize(requester, room); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "面试会话"
	}
	session := &database.Session{
		ID:     uuid.NewString(),
		Name:   name,
		RoomID: room.ID,
		Status: "initialized",
	}
	if err := s.db.WithContext(ctx).Omit("Room").Create(session).Error; err != nil {
		return nil, err
	}
	session.Room = *room
	return session, nil
}

// GetSession 返回会话（带所属面试间，以便做所有权校验）。
func (s *Service) GetSession(ctx context.Context, sessionID string) (*database.Session, error) {
	var session database.Session
	err := s.db.WithContext(ctx).
		Preload("Room").
		First(&session, "id = ?", sessionID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, resume.ErrNotFound
	case err != nil:
		return nil, err
	}
	return &session, nil
}

// ListSessionsByRoom 返回面试间内的全部会话，按创建时间升序。
func (s *Service) ListSessionsByRoom(ctx context.Context, roomID, requester string) ([]database.Session, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := resume.Authorize(requester, room); err != nil {
		return nil, err
	}

	var sessions []database.Session
	err = s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
