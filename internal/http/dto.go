package http

import (
	"time"

	"task-keeper/internal/domain"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type TaskResponse struct {
	ID          int64             `json:"id"`
	OwnerID     int64             `json:"owner_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      domain.TaskStatus `json:"status"`
	StartDate   *string           `json:"start_date,omitempty"`
	DueDate     *string           `json:"due_date,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

type AttachmentResponse struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
	URL          string  `json:"url"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	}
}

func taskToResponse(task domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID,
		OwnerID:     task.OwnerID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		StartDate:   formatTime(task.StartDate),
		DueDate:     formatTime(task.DueDate),
		CreatedAt:   task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.Format(time.RFC3339),
	}
	return resp
}

func attachmentToResponse(a domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		Key:          a.Key,
		Name:         a.Name,
		Size:         a.Size,
		LastModified: formatTime(a.LastModified),
		URL:          a.URL,
	}
}

func formatTime(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}
