package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 导出状态。
const (
	ExportPending   = "pending"
	ExportCompleted = "completed"
	ExportFailed    = "failed"
)

// Export 记录一次异步 PDF 导出。Snapshot 保存入队时的简历数据，
// worker 只渲染快照，不再访问后端。
type Export struct {
	gorm.Model
	UserID    string         `gorm:"index;size:64"`
	ResumeID  string         `gorm:"index;size:64"`
	Title     string         `gorm:"size:255"`
	Snapshot  datatypes.JSON `gorm:"type:jsonb"`
	Status    string         `gorm:"size:32;default:pending"`
	ObjectKey string         `gorm:"size:512"`
	Error     string         `gorm:"size:1024"`
}
