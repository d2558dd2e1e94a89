package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"task-keeper/internal/domain"
	"task-keeper/internal/repository"
	"task-keeper/internal/storage"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 4000
)

// TaskService exposes task operations on behalf of an authenticated owner.
// The owner id always comes from the caller's principal and is passed down to
// the repository, which scopes every query by it.
type TaskService interface {
	CreateTask(ctx context.Context, ownerID int64, input domain.Task) (*domain.Task, error)
	GetTask(ctx context.Context, ownerID, id int64) (*domain.Task, error)
	ListTasks(ctx context.Context, ownerID int64, filter domain.TaskFilter) ([]domain.Task, error)
	CountTasks(ctx context.Context, ownerID int64) (int64, error)
	UpdateTask(ctx context.Context, ownerID, id int64, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, id int64) (*domain.Task, []string, error)
	UploadAttachment(ctx context.Context, ownerID, taskID int64, name, contentType string, body io.Reader) (*domain.Attachment, error)
	ListAttachments(ctx context.Context, ownerID, taskID int64) ([]domain.Attachment, error)
}

// AttachmentStore configures object storage for attachments. A zero value
// (nil Service or empty Bucket) disables attachments.
type AttachmentStore struct {
	Service   storage.Service
	Bucket    string
	KeyPrefix string
}

func (a AttachmentStore) enabled() bool {
	return a.Service != nil && a.Bucket != ""
}

type taskService struct {
	tasks repository.TaskRepository
	store AttachmentStore
}

func NewTaskService(tasks repository.TaskRepository, store AttachmentStore) TaskService {
	return &taskService{
		tasks: tasks,
		store: store,
	}
}

func (s *taskService) CreateTask(ctx context.Context, ownerID int64, input domain.Task) (*domain.Task, error) {
	task := &domain.Task{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		StartDate:   input.StartDate,
		DueDate:     input.DueDate,
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}

	if task.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if err := validateTaskFields(&task.Title, &task.Description, &task.Status, task.StartDate, task.DueDate); err != nil {
		return nil, err
	}

	if _, err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	return s.tasks.Get(ctx, ownerID, id)
}

func (s *taskService) ListTasks(ctx context.Context, ownerID int64, filter domain.TaskFilter) ([]domain.Task, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, fmt.Errorf("%w: from is after to", domain.ErrInvalidInput)
	}
	return s.tasks.List(ctx, ownerID, filter)
}

func (s *taskService) CountTasks(ctx context.Context, ownerID int64) (int64, error) {
	return s.tasks.Count(ctx, ownerID)
}

func (s *taskService) UpdateTask(ctx context.Context, ownerID, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrInvalidInput)
		}
		patch.Title = &trimmed
	}
	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		patch.Description = &trimmed
	}
	if err := validateTaskFields(patch.Title, patch.Description, patch.Status, patch.StartDate, patch.DueDate); err != nil {
		return nil, err
	}
	return s.tasks.Update(ctx, ownerID, id, patch)
}

// DeleteTask removes the task and, best effort, its attachments. Attachment
// cleanup failures come back as warnings; the task is gone either way.
func (s *taskService) DeleteTask(ctx context.Context, ownerID, id int64) (*domain.Task, []string, error) {
	task, err := s.tasks.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if s.store.enabled() {
		if err := s.store.Service.DeletePrefix(ctx, s.store.Bucket, s.attachmentPrefix(ownerID, id)); err != nil {
			warnings = append(warnings, fmt.Sprintf("delete attachments: %v", err))
		}
	}
	return task, warnings, nil
}

func validateTaskFields(title, description *string, status *domain.TaskStatus, start, due *time.Time) error {
	if title != nil && utf8.RuneCountInString(*title) > maxTitleLength {
		return fmt.Errorf("%w: title longer than %d characters", domain.ErrInvalidInput, maxTitleLength)
	}
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLength {
		return fmt.Errorf("%w: description longer than %d characters", domain.ErrInvalidInput, maxDescriptionLength)
	}
	if status != nil && !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *status)
	}
	if start != nil && due != nil && due.Before(*start) {
		return fmt.Errorf("%w: due date before start date", domain.ErrInvalidInput)
	}
	return nil
}
