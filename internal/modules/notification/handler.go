package notification

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sportsequip/internal/domain"
	"sportsequip/internal/middleware"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/pkg/utils"
	"sportsequip/internal/pkg/validator"
)

type Handler struct {
	service *Service
	hub     *Hub
	log     *zap.Logger
}

func NewHandler(service *Service, hub *Hub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, hub: hub, log: log}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup, auth *middleware.Authenticator) {
	g := api.Group("/notifications")
	{
		g.GET("/ws", auth.RequireAuth(), h.WebSocket)
		g.GET("", auth.RequireAuth(), h.List)
		g.GET("/unread-count", auth.RequireAuth(), h.UnreadCount)
		g.PUT("/read-all", auth.RequireAuth(), h.MarkAllRead)
		g.PUT("/:id/read", auth.RequireAuth(), h.MarkRead)
		g.GET("/stats", auth.RequireAdmin(), h.Stats)
		g.POST("", auth.RequireAdmin(), middleware.RequirePermission(domain.PermSendNotifications), h.Create)
		g.DELETE("/:id", auth.RequireAdmin(), middleware.RequirePermission(domain.PermSendNotifications), h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}
	q.UnreadOnly = utils.QueryBool(c, "unreadOnly")

	res, err := h.service.List(c.Request.Context(), middleware.PrincipalFrom(c), q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.service.UnreadCount(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unreadCount": n})
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Notification marked as read", nil)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.service.MarkAllRead(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, fmt.Sprintf("Marked %d notifications as read", n), nil)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}

	n, err := h.service.Create(c.Request.Context(), middleware.AdminFrom(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusCreated, "Notification created successfully", n)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Notification deleted successfully", nil)
}

// WebSocket streams new notifications to the caller until it disconnects.
func (h *Handler) WebSocket(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	if err := h.hub.Serve(c.Writer, c.Request, audience(p)); err != nil {
		h.log.Warn("notification: websocket upgrade failed",
			zap.Error(err), zap.String("request_id", middleware.RequestIDFrom(c)))
	}
}
