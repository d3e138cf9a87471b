package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumeExport = "resume:export"
)

// QueueExports 导出任务使用的队列名。
const QueueExports = "exports"

// ResumeExportPayload 只携带导出记录 ID，简历快照保存在数据库中。
type ResumeExportPayload struct {
	ExportID      uint   `json:"export_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewResumeExportTask 构造一个新的简历导出任务。
func NewResumeExportTask(exportID uint, correlationID string, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumeExportPayload{
		ExportID:      exportID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{asynq.Queue(QueueExports)}, opts...)
	return asynq.NewTask(TypeResumeExport, payload, opts...), nil
}

// NotifyChannel 是 worker 发布、WebSocket 订阅的 Redis 频道。
func NotifyChannel(userID string) string {
	return "user_notify:" + userID
}
