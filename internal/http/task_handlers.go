package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

type listTasksQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	Status    string `form:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority  string `form:"priority" binding:"omitempty,oneof=low medium high"`
	Search    string `form:"search"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// createTaskRequest has no owner field; any "user" key in the body is ignored.
type createTaskRequest struct {
	Title       string              `json:"title" binding:"required,max=100"`
	Description string              `json:"description" binding:"max=500"`
	Status      domain.TaskStatus   `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    domain.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     dueDate             `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       *string              `json:"title" binding:"omitempty,max=100"`
	Description *string              `json:"description" binding:"omitempty,max=500"`
	Status      *domain.TaskStatus   `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    *domain.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     dueDate              `json:"dueDate"`
}

type exportResponse struct {
	Location   string `json:"location"`
	Key        string `json:"key"`
	Count      int    `json:"count"`
	ExportedAt string `json:"exportedAt"`
}

func (h *Handler) listTasks(c *gin.Context) {
	var query listTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			abortWithError(c, http.StatusBadRequest, "page and limit must be numbers")
			return
		}
		failBinding(c, err)
		return
	}

	page, err := h.tasks.ListTasks(c.Request.Context(), currentUser(c).ID, repository.TaskFilter{
		Status:    domain.TaskStatus(query.Status),
		Priority:  domain.TaskPriority(query.Priority),
		Search:    query.Search,
		SortBy:    repository.SortField(query.SortBy),
		SortOrder: repository.SortOrder(query.SortOrder),
		Page:      query.Page,
		Limit:     query.Limit,
	})
	if err != nil {
		h.fail(c, err, "Failed to retrieve tasks")
		return
	}

	resp := make([]TaskResponse, len(page.Tasks))
	for i := range page.Tasks {
		resp[i] = taskToResponse(page.Tasks[i])
	}
	respondPage(c, "Tasks retrieved successfully", resp, paginationToResponse(page.Pagination))
}

func (h *Handler) getTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusNotFound, "Task not found")
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err, "Failed to retrieve task")
		return
	}

	respond(c, http.StatusOK, "Task retrieved successfully", taskToResponse(*task))
}

func (h *Handler) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), currentUser(c).ID, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate.Time,
	})
	if err != nil {
		h.fail(c, err, "Failed to create task")
		return
	}

	respond(c, http.StatusCreated, "Task created successfully", taskToResponse(*task))
}

func (h *Handler) updateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusNotFound, "Task not found")
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBinding(c, err)
		return
	}

	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.DueDate.Set {
		update.DueDate = req.DueDate.Time
		update.ClearDueDate = req.DueDate.Time == nil
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), currentUser(c).ID, id, update)
	if err != nil {
		h.fail(c, err, "Failed to update task")
		return
	}

	respond(c, http.StatusOK, "Task updated successfully", taskToResponse(*task))
}

func (h *Handler) deleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), currentUser(c).ID, id); err != nil {
		h.fail(c, err, "Failed to delete task")
		return
	}

	respond(c, http.StatusOK, "Task deleted successfully", nil)
}

func (h *Handler) taskStats(c *gin.Context) {
	stats, err := h.tasks.Stats(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err, "Failed to retrieve task statistics")
		return
	}

	respond(c, http.StatusOK, "Task statistics retrieved successfully", statsToResponse(stats))
}

func (h *Handler) exportTasks(c *gin.Context) {
	if h.exports == nil {
		h.fail(c, service.ErrExportDisabled, "")
		return
	}

	export, err := h.exports.Export(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err, "Failed to export tasks")
		return
	}

	respond(c, http.StatusCreated, "Tasks exported successfully", exportResponse{
		Location:   export.Location,
		Key:        export.Key,
		Count:      export.Count,
		ExportedAt: export.ExportedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) listExports(c *gin.Context) {
	if h.exports == nil {
		h.fail(c, service.ErrExportDisabled, "")
		return
	}

	objects, err := h.exports.ListExports(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err, "Failed to list exports")
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	respond(c, http.StatusOK, "Exports retrieved successfully", resp)
}

func (h *Handler) deleteExports(c *gin.Context) {
	if h.exports == nil {
		h.fail(c, service.ErrExportDisabled, "")
		return
	}

	removed, err := h.exports.DeleteExports(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err, "Failed to delete exports")
		return
	}

	respond(c, http.StatusOK, "Exports deleted successfully", gin.H{"deleted": removed})
}
