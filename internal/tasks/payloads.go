package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeDocumentCleanup = "document:cleanup"
)

// DocumentCleanupPayload 描述清理已删除子树文档所需的最小信息。
// NodeID 是被删除子树的入口节点。
type DocumentCleanupPayload struct {
	NodeID        string `json:"node_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewDocumentCleanupTask 构造一个对象存储清理任务。
func NewDocumentCleanupTask(nodeID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentCleanupPayload{
		NodeID:        nodeID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDocumentCleanup, payload), nil
}
