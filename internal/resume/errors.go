package resume

import (
	"errors"
	"fmt"
)

// 版本树操作的失败分类。调用方通过 errors.Is/As 区分，
// 任何失败都会中止整个操作，不做内部重试。
var (
	// ErrNotFound 表示目标节点或面试间不存在（或已成为墓碑）。
	ErrNotFound = errors.New("resume node not found")

	// ErrPermissionDenied 表示调用者不是资源的所有者。
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDepthLimitExceeded 表示 fork 超出 MaxDepth-1 的深度上限。
	ErrDepthLimitExceeded = errors.New("tree depth limit exceeded")

	// ErrNotPublished 表示只允许对已发布节点执行的操作（关联面试间）
	// 作用在了非 published 节点上。
	ErrNotPublished = errors.New("resume is not published")
)

// ValidationError 表示调用方输入不合法（例如空的简历名称）。
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErr(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

var errRoomLinkerMissing = errors.New("room linker is not configured")

// StorageError 包装底层持久化错误。事务保证失败时不留下部分状态。
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
