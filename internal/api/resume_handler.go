package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/ShengNW/interviewer/internal/api/middleware"
	"github.com/ShengNW/interviewer/internal/database"
	"github.com/ShengNW/interviewer/internal/resume"
	"github.com/ShengNW/interviewer/internal/tasks"
)

// ResumeHandler 负责简历版本树相关的 API 请求。
type ResumeHandler struct {
	manager     *resume.Manager
	asynqClient *asynq.Client
	logger      *slog.Logger
}

// NewResumeHandler 构造 ResumeHandler。asynqClient 可以为 nil（测试）。
func NewResumeHandler(manager *resume.Manager, asynqClient *asynq.Client, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{
		manager:     manager,
		asynqClient: asynqClient,
		logger:      logger,
	}
}

type createRootRequest struct {
	Name           string  `json:"name" binding:"required"`
	TargetCompany  *string `json:"target_company"`
	TargetPosition *string `json:"target_position"`
}

type linkRoomRequest struct {
	RoomID string `json:"room_id" binding:"required"`
}

type nodeResponse struct {
	ID             string    `json:"id"`
	ParentID       *string   `json:"parent_id"`
	RootID         string    `json:"root_id"`
	Depth          int       `json:"depth"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	TargetCompany  *string   `json:"target_company,omitempty"`
	TargetPosition *string   `json:"target_position,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newNodeResponse(node *database.Resume) nodeResponse {
	return nodeResponse{
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
	}
}

// CreateRoot 创建一棵新树的根节点。
func (h *ResumeHandler) CreateRoot(c *gin.Context) {
	var req createRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	node, err := h.manager.CreateRoot(c.Request.Context(), owner, req.Name, req.TargetCompany, req.TargetPosition)
	if err != nil {
		DomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newNodeResponse(node))
}

// Fork 基于指定节点创建子版本。
func (h *ResumeHandler) Fork(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	child, err := h.manager.Fork(c.Request.Context(), c.Param("id"), owner)
	if err != nil {
		DomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newNodeResponse(child))
}

// DeleteTree 级联软删除节点及其全部后代，并异步清理对象存储。
func (h *ResumeHandler) DeleteTree(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	nodeID := c.Param("id")
	count, err := h.manager.DeleteTree(c.Request.Context(), nodeID, owner)
	if err != nil {
		DomainError(c, err)
		return
	}

	if h.asynqClient != nil {
		task, err := tasks.NewDocumentCleanupTask(nodeID, middleware.GetCorrelationID(c))
		if err == nil {
			_, err = h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
		}
		if err != nil {
			// 清理失败不影响删除结果，留给后续巡检。
			middleware.LoggerFromContext(c).Warn("enqueue document cleanup",
				slog.String("node_id", nodeID),
				slog.Any("error", err),
			)
		}
	}

	c.JSON(http.StatusOK, gin.H{"deleted_count": count})
}

// Publish 把节点状态置为 published。
func (h *ResumeHandler) Publish(c *gin.Context) {
	h.setStatus(c, h.manager.Publish)
}

// Unpublish 把节点退回 draft，幂等。
func (h *ResumeHandler) Unpublish(c *gin.Context) {
	h.setStatus(c, h.manager.Unpublish)
}

func (h *ResumeHandler) setStatus(c *gin.Context, op func(ctx context.Context, nodeID, requester string) error) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := op(c.Request.Context(), c.Param("id"), owner); err != nil {
		DomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetNode 返回节点元数据与结构化内容。
func (h *ResumeHandler) GetNode(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	nodeID := c.Param("id")
	node, err := h.manager.GetNode(ctx, nodeID, owner)
	if err != nil {
		DomainError(c, err)
		return
	}
	content, err := h.manager.GetContent(ctx, nodeID, owner)
	if err != nil {
		DomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resume":  newNodeResponse(node),
		"content": content,
	})
}

// UpdateContent 部分更新节点内容；已发布节点会先退回 draft。
func (h *ResumeHandler) UpdateContent(c *gin.Context) {
	var update resume.ContentUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		BadRequest(c, err.Error())
		return
	}

	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.manager.UpdateContent(c.Request.Context(), c.Param("id"), owner, update); err != nil {
		DomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LinkToRoom 把已发布节点关联到调用者自己的面试间。
func (h *ResumeHandler) LinkToRoom(c *gin.Context) {
	var req linkRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.manager.LinkToRoom(c.Request.Context(), c.Param("id"), req.RoomID, owner); err != nil {
		DomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTrees 返回调用者的整片版本森林。
func (h *ResumeHandler) ListTrees(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	trees, err := h.manager.ListTrees(c.Request.Context(), owner)
	if err != nil {
		DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trees": trees})
}

// ListAvailable 返回调用者可关联到面试间的已发布简历。
func (h *ResumeHandler) ListAvailable(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	nodes, err := h.manager.GetAvailablePublished(c.Request.Context(), owner)
	if err != nil {
		DomainError(c, err)
		return
	}

	items := make([]nodeResponse, 0, len(nodes))
	for i := range nodes {
		items = append(items, newNodeResponse(&nodes[i]))
	}
	c.JSON(http.StatusOK, gin.H{"resumes": items})
}

// GetStats 返回调用者的简历统计信息。
func (h *ResumeHandler) GetStats(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	stats, err := h.manager.GetStats(c.Request.Context(), owner)
	if err != nil {
		DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
