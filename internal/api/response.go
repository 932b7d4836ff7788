package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ShengNW/interviewer/internal/errcode"
	"github.com/ShengNW/interviewer/internal/resume"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func ErrorWithCode(c *gin.Context, status, code int, msg string) {
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// DomainError 把版本树核心的分类错误映射为 HTTP 响应。
// 每种失败都保持可区分，不降级为笼统的 500。
func DomainError(c *gin.Context, err error) {
	var validationErr *resume.ValidationError
	switch {
	case errors.As(err, &validationErr):
		ErrorWithCode(c, http.StatusBadRequest, errcode.InvalidParam, validationErr.Msg)
	case errors.Is(err, resume.ErrNotFound):
		ErrorWithCode(c, http.StatusNotFound, errcode.NotFound, "resource not found")
	case errors.Is(err, resume.ErrPermissionDenied):
		ErrorWithCode(c, http.StatusForbidden, errcode.Forbidden, "not the resource owner")
	case errors.Is(err, resume.ErrDepthLimitExceeded):
		ErrorWithCode(c, http.StatusBadRequest, errcode.DepthLimit, "tree depth limit exceeded")
	case errors.Is(err, resume.ErrNotPublished):
		ErrorWithCode(c, http.StatusConflict, errcode.NotPublished, "resume is not published")
	default:
		ErrorWithCode(c, http.StatusInternalServerError, errcode.SystemError, "internal error")
	}
}
