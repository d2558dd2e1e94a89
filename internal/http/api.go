package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"task-keeper/internal/domain"
	"task-keeper/internal/service"
)

// Authorizer resolves the principal behind an Authorization header.
type Authorizer interface {
	Authorize(ctx context.Context, header string) (*domain.User, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	tasks  service.TaskService
	guard  Authorizer
	logger *logrus.Logger
}

func NewHandler(users service.UserService, tasks service.TaskService, guard Authorizer, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:  users,
		tasks:  tasks,
		guard:  guard,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		auth := api.Group("/auth")
		auth.POST("/register", h.register)
		auth.POST("/login", h.requireCredentials(), h.login)
		auth.GET("/me", h.requireToken(), h.me)

		tasks := api.Group("/tasks", h.requireToken())
		tasks.POST("", h.createTask)
		tasks.GET("", h.listTasks)
		tasks.GET("/count", h.countTasks)
		tasks.GET("/:id", h.getTask)
		tasks.PATCH("/:id", h.updateTask)
		tasks.DELETE("/:id", h.deleteTask)
		tasks.POST("/:id/attachments", h.uploadAttachment)
		tasks.GET("/:id/attachments", h.listAttachments)
	}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		h.fail(c, domain.ErrInvalidCredentials)
		return
	}

	token, err := h.users.IssueToken(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) me(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		h.fail(c, domain.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) createTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		h.fail(c, domain.ErrUnauthenticated)
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), user.ID, domain.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskToResponse(*task))
}

func (h *Handler) listTasks(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		h.fail(c, domain.ErrUnauthenticated)
		return
	}

	filter, err := parseTaskFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, err := h.tasks.ListTasks(c.Request.Context(), user.ID, filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = taskToResponse(tasks[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) countTasks(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		h.fail(c, domain.ErrUnauthenticated)
		return
	}

	n, err := h.tasks.CountTasks(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *Handler) getTask(c *gin.Context) {
	user, id, ok := h.ownedTarget(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), user.ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(*task))
}

func (h *Handler) updateTask(c *gin.Context) {
	user, id, ok := h.ownedTarget(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	}
	if req.Status != nil {
		status := domain.TaskStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		patch.Status = &status
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), user.ID, id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(*task))
}

func (h *Handler) deleteTask(c *gin.Context) {
	user, id, ok := h.ownedTarget(c)
	if !ok {
		return
	}

	task, warnings, err := h.tasks.DeleteTask(c.Request.Context(), user.ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{"deleted": taskToResponse(*task)}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	user, id, ok := h.ownedTarget(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	attachment, err := h.tasks.UploadAttachment(c.Request.Context(), user.ID, id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.fail(c, err)
		return
	}
	attachment.Size = header.Size
	c.JSON(http.StatusCreated, attachmentToResponse(*attachment))
}

func (h *Handler) listAttachments(c *gin.Context) {
	user, id, ok := h.ownedTarget(c)
	if !ok {
		return
	}

	attachments, err := h.tasks.ListAttachments(c.Request.Context(), user.ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		resp[i] = attachmentToResponse(attachments[i])
	}
	c.JSON(http.StatusOK, resp)
}

// ownedTarget returns the caller and the :id path parameter. It writes the
// response itself when either is unusable.
func (h *Handler) ownedTarget(c *gin.Context) (*domain.User, int64, bool) {
	user, ok := principal(c)
	if !ok {
		h.fail(c, domain.ErrUnauthenticated)
		return nil, 0, false
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return nil, 0, false
	}
	return user, id, true
}

func parseTaskFilter(c *gin.Context) (domain.TaskFilter, error) {
	filter := domain.TaskFilter{
		Status: domain.TaskStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Search: c.Query("q"),
	}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.TaskFilter{}, fmt.Errorf("invalid from: %w", err)
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.TaskFilter{}, fmt.Errorf("invalid to: %w", err)
		}
		filter.To = &t
	}
	return filter, nil
}
