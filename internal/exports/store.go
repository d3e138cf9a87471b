package exports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"devfolio/internal/database"
	"devfolio/internal/model"
	"devfolio/internal/pdf"
	"devfolio/internal/tasks"
)

var (
	// ErrNotFound 导出记录不存在或不属于当前用户。
	ErrNotFound = errors.New("exports: not found")
	// ErrNotReady 导出尚未完成。
	ErrNotReady = errors.New("exports: not ready")
)

// Enqueuer 是 *asynq.Client 的最小接口。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// LinkSigner issues download links for stored objects.
type LinkSigner interface {
	GenerateDownloadURL(ctx context.Context, objectKey, filename string, duration time.Duration) (string, error)
}

// Service 管理导出记录：写入快照、入队、签发下载链接。
type Service struct {
	db       *gorm.DB
	queue    Enqueuer
	signer   LinkSigner
	linkTTL  time.Duration
	maxRetry int
	logger   *slog.Logger
}

// NewService 构造导出服务。logger 为 nil 时使用 slog.Default()。
func NewService(db *gorm.DB, queue Enqueuer, signer LinkSigner, linkTTL time.Duration, maxRetry int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, queue: queue, signer: signer, linkTTL: linkTTL, maxRetry: maxRetry, logger: logger}
}

// Request 保存简历快照并投递导出任务。入队失败时记录标记为 failed。
func (s *Service) Request(ctx context.Context, userID string, resume model.Resume, correlationID string) (*database.Export, error) {
	snapshot, err := json.Marshal(resume.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	export := database.Export{
		UserID:   userID,
		ResumeID: resume.ID,
		Title:    resume.Title,
		Snapshot: datatypes.JSON(snapshot),
		Status:   database.ExportPending,
	}
	if err := s.db.WithContext(ctx).Create(&export).Error; err != nil {
		return nil, fmt.Errorf("create export: %w", err)
	}

	task, err := tasks.NewResumeExportTask(export.ID, correlationID, asynq.MaxRetry(s.maxRetry))
	if err != nil {
		return nil, fmt.Errorf("build export task: %w", err)
	}
	if _, err := s.queue.EnqueueContext(ctx, task); err != nil {
		if markErr := s.db.WithContext(ctx).Model(&export).Updates(map[string]any{
			"status": database.ExportFailed,
			"error":  "enqueue failed",
		}).Error; markErr != nil {
			s.logger.Error("mark export failed",
				slog.Uint64("export_id", uint64(export.ID)),
				slog.Any("error", markErr))
		}
		return nil, fmt.Errorf("enqueue export %d: %w", export.ID, err)
	}
	return &export, nil
}

// Get 返回属于 userID 的导出记录。
func (s *Service) Get(ctx context.Context, userID string, id uint) (*database.Export, error) {
	var export database.Export
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&export).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query export %d: %w", id, err)
	}
	return &export, nil
}

// List returns the user's most recent exports, newest first.
func (s *Service) List(ctx context.Context, userID, resumeID string, limit int) ([]database.Export, error) {
	if limit <= 0 {
		limit = 10
	}
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if resumeID != "" {
		q = q.Where("resume_id = ?", resumeID)
	}
	var out []database.Export
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return out, nil
}

// DownloadURL 为已完成的导出签发限时链接，文件名固定为 resume.pdf。
func (s *Service) DownloadURL(ctx context.Context, userID string, id uint) (string, error) {
	export, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if export.Status != database.ExportCompleted || export.ObjectKey == "" {
		return "", ErrNotReady
	}
	return s.signer.GenerateDownloadURL(ctx, export.ObjectKey, pdf.FileName, s.linkTTL)
}
