package equipment

import (
	"encoding/json"
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
	g := api.Group("/equipment")
	{
		g.GET("", h.List)
		g.GET("/categories", h.Categories)
		g.GET("/stats/overview", auth.RequireAdmin(), middleware.RequirePermission(domain.PermViewReports), h.Stats)
		g.GET("/:id", auth.OptionalAuth(), h.Get)

		manage := g.Group("", auth.RequireAdmin(), middleware.RequirePermission(domain.PermManageEquipment))
		manage.POST("", h.Create)
		manage.PUT("/:id", h.Update)
		manage.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}
	q.Available = utils.QueryBool(c, "available")
	q.NewArrivals = utils.QueryBool(c, "newArrivals")

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
	eq, err := h.service.Get(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, eq)
}

func (h *Handler) Categories(c *gin.Context) {
	out, err := h.service.Categories(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *Handler) Create(c *gin.Context) {
	images, err := h.uploads.Files(c, "images")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req CreateRequest
	if err := bindEquipment(c, &req, &req.Structured); err != nil {
		response.FromError(c, err)
		return
	}

	eq, err := h.service.Create(c.Request.Context(), middleware.AdminFrom(c), req, images)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusCreated, "Equipment added successfully", eq)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		response.FromError(c, err)
		return
	}
	images, err := h.uploads.Files(c, "images")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req UpdateRequest
	if err := bindEquipment(c, &req, &req.Structured); err != nil {
		response.FromError(c, err)
		return
	}

	eq, err := h.service.Update(c.Request.Context(), id, req, images)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Equipment updated successfully", eq)
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
	response.SuccessMessage(c, http.StatusOK, "Equipment deleted successfully", nil)
}

// bindEquipment decodes a JSON body directly. Form bodies carry the
// structured fields as JSON strings; quantity may also be sent as
// quantity[total].
func bindEquipment(c *gin.Context, req any, st *Structured) error {
	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(req); err != nil {
			return validator.Translate(err)
		}
		return nil
	}

	if err := c.ShouldBind(req); err != nil {
		return validator.Translate(err)
	}
	if err := utils.JSONField(c, "specifications", &st.Specifications); err != nil {
		return err
	}
	if err := utils.JSONField(c, "location", &st.Location); err != nil {
		return err
	}
	if raw, ok := c.GetPostForm("tags"); ok {
		st.Tags = utils.SplitTags(raw)
	}

	raw := c.PostForm("quantity")
	if raw == "" {
		raw = c.PostForm("quantity[total]")
	}
	if raw == "" {
		return nil
	}
	var q QuantityInput
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return ErrInvalidQuantity
	}
	st.Quantity = &q
	return nil
}
