package worker

// ExportNotifyMessage 通过 Redis Pub/Sub 转发给浏览器的导出结果消息。
// 字段名与页面脚本解析保持一致。
type ExportNotifyMessage struct {
	Status        string `json:"status"`
	ExportID      uint   `json:"export_id"`
	ResumeID      string `json:"resume_id"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}
