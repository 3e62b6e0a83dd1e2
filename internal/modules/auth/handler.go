package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sportsequip/internal/middleware"
	"sportsequip/internal/modules/upload"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/pkg/validator"
)

// Handler manages the HTTP side of authentication.
type Handler struct {
	service *Service
	uploads *upload.Service
}

func NewHandler(service *Service, uploads *upload.Service) *Handler {
	return &Handler{service: service, uploads: uploads}
}

// RegisterRoutes mounts /auth. otpLimit guards every endpoint that issues
// or checks a code.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, auth *middleware.Authenticator, otpLimit gin.HandlerFunc) {
	g := api.Group("/auth")
	{
		g.POST("/admin/login", h.AdminLogin)
		g.POST("/student/register", otpLimit, h.Register)
		g.POST("/student/login", otpLimit, h.StudentLogin)
		g.POST("/student/verify-otp", otpLimit, h.VerifyOTP)
		g.POST("/student/resend-otp", otpLimit, h.ResendOTP)
		g.GET("/me", auth.RequireAuth(), h.Me)
	}
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}

	res, err := h.service.AdminLogin(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Login successful", res)
}

func (h *Handler) Register(c *gin.Context) {
	idCard, err := h.uploads.File(c, "idCard")
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}

	st, err := h.service.Register(c.Request.Context(), req, idCard)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusCreated,
		"Student registered successfully. Please verify your phone number with OTP.",
		RegisterResponse{StudentID: st.StudentNumber, Email: st.Email, PhoneNumber: st.PhoneNumber})
}

func (h *Handler) StudentLogin(c *gin.Context) {
	var req StudentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}
	if err := h.service.Login(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "OTP sent successfully", nil)
}

func (h *Handler) ResendOTP(c *gin.Context) {
	var req StudentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}
	if err := h.service.ResendOTP(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "OTP resent successfully", nil)
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, validator.Translate(err))
		return
	}

	res, err := h.service.VerifyOTP(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "OTP verified successfully", res)
}

func (h *Handler) Me(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	out := MeResponse{Type: p.Kind}
	if p.IsAdmin() {
		out.User = p.Admin
	} else {
		out.User = p.Student
	}
	response.Success(c, http.StatusOK, out)
}
