package service

import (
	"context"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-keeper/internal/domain"
	"task-keeper/internal/storage"
)

const attachmentURLExpiry = 15 * time.Minute

// UploadAttachment stores body under the owner's task prefix. The task is
// looked up by (id, owner) first; without a match nothing is written.
func (s *taskService) UploadAttachment(ctx context.Context, ownerID, taskID int64, name, contentType string, body io.Reader) (*domain.Attachment, error) {
	if !s.store.enabled() {
		return nil, domain.ErrStorageDisabled
	}
	if _, err := s.tasks.Get(ctx, ownerID, taskID); err != nil {
		return nil, err
	}

	name = sanitizeFileName(name)
	key := s.attachmentPrefix(ownerID, taskID) + uuid.NewString() + "-" + name

	if err := s.store.Service.PutObject(ctx, body, storage.PutOptions{
		Bucket:      s.store.Bucket,
		Key:         key,
		ContentType: contentType,
	}); err != nil {
		return nil, err
	}

	url, err := s.store.Service.GetObjectURL(ctx, s.store.Bucket, key, attachmentURLExpiry)
	if err != nil {
		return nil, err
	}
	return &domain.Attachment{Key: key, Name: name, URL: url}, nil
}

func (s *taskService) ListAttachments(ctx context.Context, ownerID, taskID int64) ([]domain.Attachment, error) {
	if !s.store.enabled() {
		return nil, domain.ErrStorageDisabled
	}
	if _, err := s.tasks.Get(ctx, ownerID, taskID); err != nil {
		return nil, err
	}

	prefix := s.attachmentPrefix(ownerID, taskID)
	objects, err := s.store.Service.ListObjects(ctx, s.store.Bucket, prefix)
	if err != nil {
		return nil, err
	}

	attachments := make([]domain.Attachment, 0, len(objects))
	for _, obj := range objects {
		url, err := s.store.Service.GetObjectURL(ctx, s.store.Bucket, obj.Key, attachmentURLExpiry)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, domain.Attachment{
			Key:          obj.Key,
			Name:         attachmentName(strings.TrimPrefix(obj.Key, prefix)),
			Size:         obj.Size,
			LastModified: obj.LastModified,
			URL:          url,
		})
	}
	return attachments, nil
}

// attachmentPrefix is derived only from ids the repository has already
// scoped, never from client input.
func (s *taskService) attachmentPrefix(ownerID, taskID int64) string {
	return path.Join(
		strings.Trim(s.store.KeyPrefix, "/"),
		"owners", strconv.FormatInt(ownerID, 10),
		"tasks", strconv.FormatInt(taskID, 10),
	) + "/"
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// attachmentName strips the "<uuid>-" a stored key carries.
func attachmentName(base string) string {
	if len(base) > 37 && base[36] == '-' {
		if _, err := uuid.Parse(base[:36]); err == nil {
			return base[37:]
		}
	}
	return base
}
