package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskboard/internal/auth"
	"taskboard/internal/domain"
	"taskboard/internal/ratelimit"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/storage"
)

const (
	apiLimitMessage  = "Too many requests from this IP, please try again later."
	authLimitMessage = "Too many authentication attempts, please try again later."
)

// Options carries the collaborators of a Handler. Exports and the limiters
// may be nil.
type Options struct {
	Users          service.UserService
	Tasks          service.TaskService
	Exports        service.ExportService
	Tokens         *auth.TokenService
	Logger         *logrus.Logger
	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For. Empty means the peer address is
	// the client address.
	TrustedProxies []string
	CookieSecure   bool
	APILimiter     *ratelimit.Limiter
	AuthLimiter    *ratelimit.Limiter
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users          service.UserService
	tasks          service.TaskService
	exports        service.ExportService
	tokens         *auth.TokenService
	logger         *logrus.Logger
	allowedOrigins []string
	trustedProxies []string
	cookieSecure   bool
	apiLimiter     *ratelimit.Limiter
	authLimiter    *ratelimit.Limiter
}

func NewHandler(opts Options) *Handler {
	registerValidation()

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:          opts.Users,
		tasks:          opts.Tasks,
		exports:        opts.Exports,
		tokens:         opts.Tokens,
		logger:         logger,
		allowedOrigins: opts.AllowedOrigins,
		trustedProxies: opts.TrustedProxies,
		cookieSecure:   opts.CookieSecure,
		apiLimiter:     opts.APILimiter,
		authLimiter:    opts.AuthLimiter,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) error {
	if err := router.SetTrustedProxies(h.trustedProxies); err != nil {
		return fmt.Errorf("set trusted proxies: %w", err)
	}

	router.Use(requestLogger(h.logger))
	router.Use(corsMiddleware(h.allowedOrigins))
	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "Route "+c.Request.URL.Path+" not found")
	})

	api := router.Group("/api")
	api.Use(h.rateLimit(h.apiLimiter, apiLimitMessage))
	{
		api.GET("/health", h.health)

		authLimited := h.rateLimit(h.authLimiter, authLimitMessage)
		authRoutes := api.Group("/auth")
		authRoutes.POST("/register", authLimited, h.register)
		authRoutes.POST("/login", authLimited, h.login)
		authRoutes.GET("/session", h.optionalAuth(), h.session)

		account := authRoutes.Group("", h.requireAuth())
		account.GET("/profile", h.profile)
		account.PUT("/profile", h.updateProfile)
		account.PUT("/change-password", h.changePassword)
		account.POST("/logout", h.logout)

		tasks := api.Group("/tasks", h.requireAuth())
		tasks.GET("", h.listTasks)
		tasks.POST("", h.createTask)
		tasks.GET("/stats", h.taskStats)
		tasks.POST("/export", h.exportTasks)
		tasks.GET("/exports", h.listExports)
		tasks.DELETE("/exports", h.deleteExports)
		tasks.GET("/:id", h.getTask)
		tasks.PUT("/:id", h.updateTask)
		tasks.DELETE("/:id", h.deleteTask)
	}
	return nil
}

func (h *Handler) health(c *gin.Context) {
	respond(c, http.StatusOK, "Server is running!", gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type UserResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	IsActive  bool    `json:"isActive"`
	LastLogin *string `json:"lastLogin,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

type TaskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
	IsCompleted bool    `json:"isCompleted"`
	CompletedAt *string `json:"completedAt"`
	UserID      int64   `json:"user"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type StatsResponse struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Overdue    int            `json:"overdue"`
	ByStatus   map[string]int `json:"byStatus"`
	ByPriority map[string]int `json:"byPriority"`
}

type paginationResponse struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalTasks  int  `json:"totalTasks"`
	Limit       int  `json:"limit"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

func formatTime(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC().Format(time.RFC3339)
	return &v
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		LastLogin: formatTime(user.LastLogin),
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func taskToResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     formatTime(task.DueDate),
		IsCompleted: task.IsCompleted,
		CompletedAt: formatTime(task.CompletedAt),
		UserID:      task.UserID,
		CreatedAt:   task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func statsToResponse(stats *repository.TaskStats) StatsResponse {
	resp := StatsResponse{
		Total:      stats.Total,
		Completed:  stats.Completed,
		Overdue:    stats.Overdue,
		ByStatus:   make(map[string]int, len(stats.ByStatus)),
		ByPriority: make(map[string]int, len(stats.ByPriority)),
	}
	for status, n := range stats.ByStatus {
		resp.ByStatus[string(status)] = n
	}
	for priority, n := range stats.ByPriority {
		resp.ByPriority[string(priority)] = n
	}
	return resp
}

func paginationToResponse(p repository.Pagination) paginationResponse {
	return paginationResponse{
		CurrentPage: p.CurrentPage,
		TotalPages:  p.TotalPages,
		TotalTasks:  p.TotalTasks,
		Limit:       p.Limit,
		HasNext:     p.HasNext,
		HasPrev:     p.HasPrev,
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	return StorageObjectResponse{
		Key:          obj.Key,
		Size:         obj.Size,
		LastModified: formatTime(obj.LastModified),
	}
}
