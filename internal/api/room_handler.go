package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ShengNW/interviewer/internal/api/middleware"
	"github.com/ShengNW/interviewer/internal/database"
	"github.com/ShengNW/interviewer/internal/resume"
	"github.com/ShengNW/interviewer/internal/room"
)

// RoomHandler 负责面试间与会话相关的 API 请求。
type RoomHandler struct {
	rooms *room.Service
}

// NewRoomHandler 构造 RoomHandler。
func NewRoomHandler(rooms *room.Service) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type createSessionRequest struct {
	Name string `json:"name"`
}

type roomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ResumeID  *string   `json:"resume_id"`
	CreatedAt time.Time `json:"created_at"`
}

func newRoomResponse(r *database.Room) roomResponse {
	return roomResponse{
		ID:        r.ID,
		Name:      r.Name,
		ResumeID:  r.ResumeID,
		CreatedAt: r.CreatedAt,
	}
}

// CreateRoom 为调用者创建面试间。
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		BadRequest(c, err.Error())
		return
	}

	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	created, err := h.rooms.CreateRoom(c.Request.Context(), owner, req.Name)
	if err != nil {
		DomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRoomResponse(created))
}

// ListRooms 列出调用者的全部面试间。
func (h *RoomHandler) ListRooms(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	rooms, err := h.rooms.ListRoomsByOwner(c.Request.Context(), owner)
	if err != nil {
		DomainError(c, err)
		return
	}

	items := make([]roomResponse, 0, len(rooms))
	for i := range rooms {
		items = append(items, newRoomResponse(&rooms[i]))
	}
	c.JSON(http.StatusOK, gin.H{"rooms": items})
}

// GetRoom 返回调用者自己的面试间详情。
func (h *RoomHandler) GetRoom(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	r, err := h.rooms.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		DomainError(c, err)
		return
	}
	if err := resume.Authorize(owner, r); err != nil {
		DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRoomResponse(r))
}

// CreateSession 在面试间内创建会话。
func (h *RoomHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		BadRequest(c, err.Error())
		return
	}

	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	session, err := h.rooms.CreateSession(c.Request.Context(), c.Param("id"), owner, req.Name)
	if err != nil {
		DomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":            session.ID,
		"name":          session.Name,
		"room_id":       session.RoomID,
		"status":        session.Status,
		"current_round": session.CurrentRound,
	})
}

// ListSessions 列出面试间内的全部会话。
func (h *RoomHandler) ListSessions(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	sessions, err := h.rooms.ListSessionsByRoom(c.Request.Context(), c.Param("id"), owner)
	if err != nil {
		DomainError(c, err)
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, gin.H{
			"id":            s.ID,
			"name":          s.Name,
			"room_id":       s.RoomID,
			"status":        s.Status,
			"current_round": s.CurrentRound,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": items})
}
