package student

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"sportsequip/internal/domain"
	"sportsequip/internal/middleware"
	"sportsequip/internal/modules/upload"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/pkg/utils"
	"sportsequip/internal/pkg/validator"
)

type Handler struct {
	service *Service
	uploads *upload.Service
}

func NewHandler(service *Service, uploads *upload.Service) *Handler {
	return &Handler{service: service, uploads: uploads}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup, auth *middleware.Authenticator) {
	g := api.Group("/students")
	{
		g.GET("/departments", h.Departments)
		g.GET("", auth.RequireAdmin(), middleware.RequirePermission(domain.PermManageStudents), h.List)
		g.GET("/:id", auth.RequireAuth(), h.Get)
		g.PUT("/:id", auth.RequireStudent(), h.UpdateProfile)
		g.GET("/:id/requests", auth.RequireAuth(), h.Requests)
		g.GET("/:id/stats", auth.RequireAuth(), h.Stats)

		manage := g.Group("/:id", auth.RequireAdmin(), middleware.RequirePermission(domain.PermManageStudents))
		manage.PUT("/verify", h.Verify)
		manage.PUT("/deactivate", h.Deactivate)
	}
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}
	q.Verified = utils.QueryOptionalBool(c, "verified")

	res, err := h.service.List(c.Request.Context(), q)
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
	st, err := h.service.Get(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	image, err := h.uploads.File(c, "profileImage")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req ProfileUpdate
	if err := bindProfile(c, &req); err != nil {
		response.FromError(c, err)
		return
	}

	st, err := h.service.UpdateProfile(c.Request.Context(), middleware.StudentFrom(c), id, req, image)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Profile updated successfully", st)
}

func bindProfile(c *gin.Context, req *ProfileUpdate) error {
	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(req); err != nil {
			return validator.Translate(err)
		}
		return nil
	}
	if err := c.ShouldBind(req); err != nil {
		return validator.Translate(err)
	}
	if err := utils.JSONField(c, "address", &req.Address); err != nil {
		return err
	}
	return utils.JSONField(c, "emergencyContact", &req.EmergencyContact)
}

func (h *Handler) Requests(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	var q RequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}
	res, err := h.service.Requests(c.Request.Context(), middleware.PrincipalFrom(c), id, q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Stats(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *Handler) Verify(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	st, err := h.service.Verify(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Student verified successfully", st)
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Student account deactivated successfully", nil)
}

func (h *Handler) Departments(c *gin.Context) {
	out, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}
