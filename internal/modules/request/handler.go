package request

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sportsequip/internal/domain"
	"sportsequip/internal/middleware"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/pkg/utils"
	"sportsequip/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup, auth *middleware.Authenticator) {
	g := api.Group("/requests")
	{
		g.POST("", auth.RequireStudent(), h.Create)
		g.GET("", auth.RequireAuth(), h.List)
		g.GET("/stats/overview", auth.RequireAdmin(), middleware.RequirePermission(domain.PermViewReports), h.Stats)
		g.GET("/overdue", auth.RequireAdmin(), h.Overdue)
		g.GET("/:id", auth.RequireAuth(), h.Get)

		manage := g.Group("/:id", auth.RequireAdmin(), middleware.RequirePermission(domain.PermManageRequests))
		manage.PUT("/approve", h.Approve)
		manage.PUT("/reject", h.Reject)
		manage.PUT("/borrow", h.Borrow)
		manage.PUT("/return", h.Return)
		manage.PUT("/extend", h.Extend)
	}
}

// bindOptional decodes a JSON body when one was sent.
func bindOptional(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return validator.Validate(dst)
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		return validator.Translate(err)
	}
	return nil
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}
	r, err := h.service.Create(c.Request.Context(), middleware.StudentFrom(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusCreated, "Request created successfully", r)
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}
	res, err := h.service.List(c.Request.Context(), middleware.PrincipalFrom(c), q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	r, err := h.service.Get(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, r)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *Handler) Overdue(c *gin.Context) {
	items, err := h.service.Overdue(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, "Request approved successfully", func(c *gin.Context, id int64) (*domain.Request, error) {
		var req ApproveRequest
		if err := bindOptional(c, &req); err != nil {
			return nil, err
		}
		return h.service.Approve(c.Request.Context(), middleware.AdminFrom(c), id, req)
	})
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, "Request rejected successfully", func(c *gin.Context, id int64) (*domain.Request, error) {
		var req RejectRequest
		if err := bindOptional(c, &req); err != nil {
			return nil, err
		}
		return h.service.Reject(c.Request.Context(), middleware.AdminFrom(c), id, req)
	})
}

func (h *Handler) Borrow(c *gin.Context) {
	h.transition(c, "Request marked as borrowed", func(c *gin.Context, id int64) (*domain.Request, error) {
		return h.service.MarkBorrowed(c.Request.Context(), middleware.AdminFrom(c), id)
	})
}

func (h *Handler) Return(c *gin.Context) {
	h.transition(c, "Request marked as returned", func(c *gin.Context, id int64) (*domain.Request, error) {
		var req ReturnRequest
		if err := bindOptional(c, &req); err != nil {
			return nil, err
		}
		return h.service.MarkReturned(c.Request.Context(), middleware.AdminFrom(c), id, req)
	})
}

func (h *Handler) Extend(c *gin.Context) {
	h.transition(c, "Request extended successfully", func(c *gin.Context, id int64) (*domain.Request, error) {
		var req ExtendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, validator.Translate(err)
		}
		return h.service.Extend(c.Request.Context(), middleware.AdminFrom(c), id, req)
	})
}

func (h *Handler) transition(c *gin.Context, msg string, fn func(*gin.Context, int64) (*domain.Request, error)) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	r, err := fn(c, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, msg, r)
}
