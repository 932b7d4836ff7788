package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ShengNW/interviewer/internal/api/middleware"
	"github.com/ShengNW/interviewer/internal/errcode"
	"github.com/ShengNW/interviewer/internal/resume"
	"github.com/ShengNW/interviewer/internal/storage"
)

// DocumentStorage 是文档处理所需的对象存储能力。
type DocumentStorage interface {
	UploadDocument(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	ListDocuments(ctx context.Context, nodeID string) ([]string, error)
}

// DocumentHandler 负责简历原始文档（PDF）的上传与下载。
// 内容提取由外部管线完成，这里只做对象存储的出入口。
type DocumentHandler struct {
	manager          *resume.Manager
	storage          DocumentStorage
	redis            redisRateCounter
	logger           *slog.Logger
	clamdAddr        string
	maxBytes         int64
	maxUploadsPerDay int
}

// NewDocumentHandler 构造 DocumentHandler。
func NewDocumentHandler(
	manager *resume.Manager,
	storage DocumentStorage,
	redisClient redisRateCounter,
	logger *slog.Logger,
	clamdAddr string,
	maxBytes int64,
	maxUploadsPerDay int,
) *DocumentHandler {
	return &DocumentHandler{
		manager:          manager,
		storage:          storage,
		redis:            redisClient,
		logger:           logger,
		clamdAddr:        clamdAddr,
		maxBytes:         maxBytes,
		maxUploadsPerDay: maxUploadsPerDay,
	}
}

// UploadDocument 为调用者自己的节点上传一份 PDF 原始文档。
// 配置了 clamd 时先做病毒扫描；按用户计每日上传次数。
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	nodeID := c.Param("id")
	if _, err := h.manager.GetNode(c.Request.Context(), nodeID, owner); err != nil {
		DomainError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		ErrorWithCode(c, http.StatusBadRequest, errcode.UploadRejected, "file too large")
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		ErrorWithCode(c, http.StatusBadRequest, errcode.UploadRejected, "only pdf is supported")
		return
	}

	if h.redis != nil && h.maxUploadsPerDay > 0 {
		key := "rate:doc-upload:" + owner
		count, err := incrWithTTL(c.Request.Context(), h.redis, key, 24*time.Hour)
		if err != nil {
			h.logger.Warn("count uploads", slog.Any("error", err))
		} else if count > int64(h.maxUploadsPerDay) {
			ErrorWithCode(c, http.StatusTooManyRequests, errcode.UploadRejected, "daily upload limit reached")
			return
		}
	}

	if h.clamdAddr != "" {
		if err := h.scanUpload(file); err != nil {
			ErrorWithCode(c, http.StatusBadRequest, errcode.UploadRejected, err.Error())
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer reader.Close()

	objectKey := storage.DocumentPrefix(nodeID) + uuid.NewString() + ".pdf"
	if _, err := h.storage.UploadDocument(c.Request.Context(), objectKey, reader, file.Size, "application/pdf"); err != nil {
		h.logger.Error("upload document", slog.String("error", err.Error()))
		Internal(c, "failed to upload document")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"object_key": objectKey})
}

// GetDocumentLink 返回节点最近一份文档的预签名下载链接。
func (h *DocumentHandler) GetDocumentLink(c *gin.Context) {
	owner, ok := middleware.OwnerAddressFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	nodeID := c.Param("id")
	if _, err := h.manager.GetNode(c.Request.Context(), nodeID, owner); err != nil {
		DomainError(c, err)
		return
	}

	keys, err := h.storage.ListDocuments(c.Request.Context(), nodeID)
	if err != nil {
		h.logger.Error("list documents", slog.String("error", err.Error()))
		Internal(c, "failed to list documents")
		return
	}
	if len(keys) == 0 {
		NotFound(c, "no document uploaded")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), keys[len(keys)-1], 5*time.Minute)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func (h *DocumentHandler) scanUpload(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer reader.Close()

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	if err != nil {
		return fmt.Errorf("scan file: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return errors.New("malicious file detected")
		}
	}
	return nil
}
