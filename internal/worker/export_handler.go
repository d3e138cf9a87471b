package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"devfolio/internal/database"
	"devfolio/internal/errcode"
	"devfolio/internal/model"
	"devfolio/internal/tasks"
)

// ResumePDF 渲染简历快照为 PDF，由 *pdf.Service 实现。
type ResumePDF interface {
	ResumePDF(ctx context.Context, title string, data model.ResumeData) ([]byte, error)
}

// Uploader 是 *storage.Client 的上传子集。
type Uploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
}

// Publisher 是 redis 客户端的发布子集。
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ExportTaskHandler 负责消费简历导出任务。
type ExportTaskHandler struct {
	db        *gorm.DB
	pdf       ResumePDF
	storage   Uploader
	publisher Publisher
	logger    *slog.Logger
	newKey    func(userID string) string
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(db *gorm.DB, pdf ResumePDF, storage Uploader, publisher Publisher, logger *slog.Logger) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:        db,
		pdf:       pdf,
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		newKey: func(userID string) string {
			return fmt.Sprintf("exports/%s/%s.pdf", userID, uuid.NewString())
		},
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ResumeExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("export_id", uint64(payload.ExportID)),
	)
	log.Info("starting resume export task")

	var export database.Export
	if err := h.db.WithContext(ctx).First(&export, payload.ExportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("export not found, skipping task")
			return nil
		}
		log.Error("query export failed", slog.Any("error", err))
		return err
	}
	if export.Status == database.ExportCompleted {
		log.Info("export already completed, skipping task")
		return nil
	}

	log = log.With(slog.String("user_id", export.UserID), slog.String("resume_id", export.ResumeID))

	defer func() {
		if retErr == nil {
			return
		}
		skip := errors.Is(retErr, asynq.SkipRetry)
		if !skip && !isFinalAsynqAttempt(ctx) {
			return
		}

		code := errcode.SystemError
		if skip {
			code = errcode.InvalidSnapshot
		}
		message := strings.TrimSpace(retErr.Error())
		if err := h.db.WithContext(context.WithoutCancel(ctx)).Model(&export).Updates(map[string]any{
			"status": database.ExportFailed,
			"error":  truncate(message, 1024),
		}).Error; err != nil {
			log.Error("mark export failed", slog.Any("error", err))
		}

		notify := ExportNotifyMessage{
			Status:        "error",
			ExportID:      export.ID,
			ResumeID:      export.ResumeID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     code,
			ErrorMessage:  message,
		}
		if err := h.publishExportNotify(ctx, export.UserID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	var data model.ResumeData
	if err := json.Unmarshal(export.Snapshot, &data); err != nil {
		log.Error("decode resume snapshot failed", slog.Any("error", err))
		return fmt.Errorf("decode snapshot: %v: %w", err, asynq.SkipRetry)
	}

	pdfBytes, err := h.pdf.ResumePDF(ctx, export.Title, data)
	if err != nil {
		log.Error("render pdf failed", slog.Any("error", err))
		return err
	}

	objectName := h.newKey(export.UserID)
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	if err := h.db.WithContext(ctx).Model(&export).Updates(map[string]any{
		"object_key": objectName,
		"status":     database.ExportCompleted,
		"error":      "",
	}).Error; err != nil {
		log.Error("update export failed", slog.Any("error", err))
		return err
	}

	notify := ExportNotifyMessage{
		Status:        "completed",
		ExportID:      export.ID,
		ResumeID:      export.ResumeID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	// 通知失败不影响导出结果，页面可以通过链接接口轮询。
	if err := h.publishExportNotify(ctx, export.UserID, notify); err != nil {
		log.Warn("publish redis notification failed", slog.Any("error", err))
	}

	log.Info("resume export task completed", slog.Int("bytes", len(pdfBytes)))
	return nil
}

func (h *ExportTaskHandler) publishExportNotify(ctx context.Context, userID string, notify ExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.NotifyChannel(userID)
	if err := h.publisher.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
