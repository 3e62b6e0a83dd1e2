package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sportsequip/internal/domain"
	"sportsequip/internal/pkg/jwt"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/repository"
)

const principalKey = "principal"

const (
	msgNoToken        = "Access denied. No token provided."
	msgInvalidToken   = "Invalid token."
	msgAdminInactive  = "Invalid token or admin account deactivated."
	msgStudentBlocked = "Invalid token or student account not verified."
	msgAdminRequired  = "Admin authentication required."
)

type StudentGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Student, error)
}

type AdminGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Admin, error)
}

type tokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// Authenticator resolves the caller of a request from its bearer token.
// The token only says which account table to read; every decision is made
// on the freshly loaded record.
type Authenticator struct {
	tokens   tokenValidator
	students StudentGetter
	admins   AdminGetter
	log      *zap.Logger
}

func NewAuthenticator(tokens tokenValidator, students StudentGetter, admins AdminGetter, log *zap.Logger) *Authenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{tokens: tokens, students: students, admins: admins, log: log}
}

var (
	errNoToken      = errors.New("no token")
	errInactive     = errors.New("account inactive")
	errWrongAccount = errors.New("wrong account kind")
)

func (a *Authenticator) resolve(c *gin.Context, want domain.PrincipalKind) (*domain.Principal, error) {
	raw := bearerToken(c)
	if raw == "" {
		return nil, errNoToken
	}
	claims, err := a.tokens.ValidateToken(raw)
	if err != nil {
		return nil, err
	}

	kind := domain.PrincipalKind(claims.Role)
	if want != "" && kind != want {
		return nil, errWrongAccount
	}

	ctx := c.Request.Context()
	switch kind {
	case domain.PrincipalAdmin:
		admin, err := a.admins.GetByID(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		if !admin.IsActive {
			return nil, errInactive
		}
		return domain.AdminPrincipal(admin), nil
	case domain.PrincipalStudent:
		student, err := a.students.GetByID(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		if !student.CanAuthenticate() {
			return nil, errInactive
		}
		return domain.StudentPrincipal(student), nil
	}
	return nil, fmt.Errorf("%w: %q", errWrongAccount, claims.Role)
}

// reject writes the 401 for a failed resolve. Storage failures other than a
// missing row are internal errors.
func (a *Authenticator) reject(c *gin.Context, err error, kind domain.PrincipalKind) {
	switch {
	case errors.Is(err, errNoToken):
		response.Abort(c, http.StatusUnauthorized, msgNoToken)
	case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, errWrongAccount):
		response.Abort(c, http.StatusUnauthorized, msgInvalidToken)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, errInactive):
		if kind == domain.PrincipalAdmin {
			response.Abort(c, http.StatusUnauthorized, msgAdminInactive)
		} else {
			response.Abort(c, http.StatusUnauthorized, msgStudentBlocked)
		}
	default:
		a.log.Error("auth: load principal", zap.Error(err), zap.String("request_id", RequestIDFrom(c)))
		response.Abort(c, http.StatusInternalServerError, "Internal server error")
	}
}

// RequireAdmin admits active admins only.
func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := a.resolve(c, domain.PrincipalAdmin)
		if err != nil {
			a.reject(c, err, domain.PrincipalAdmin)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireStudent admits active, verified students only.
func (a *Authenticator) RequireStudent() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := a.resolve(c, domain.PrincipalStudent)
		if err != nil {
			a.reject(c, err, domain.PrincipalStudent)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireAuth admits either kind of principal.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := a.resolve(c, "")
		if err != nil {
			a.reject(c, err, tokenKind(a, c))
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// OptionalAuth attaches the principal when one resolves and never fails.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, err := a.resolve(c, ""); err == nil {
			c.Set(principalKey, p)
		}
		c.Next()
	}
}

// RequirePermission must run after RequireAdmin.
func RequirePermission(perm domain.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := AdminFrom(c)
		if admin == nil {
			response.Abort(c, http.StatusUnauthorized, msgAdminRequired)
			return
		}
		if !admin.Can(perm) {
			response.Abort(c, http.StatusForbidden, fmt.Sprintf("Access denied. You don't have permission to %s.", perm))
			return
		}
		c.Next()
	}
}

func tokenKind(a *Authenticator, c *gin.Context) domain.PrincipalKind {
	claims, err := a.tokens.ValidateToken(bearerToken(c))
	if err != nil {
		return domain.PrincipalStudent
	}
	return domain.PrincipalKind(claims.Role)
}

// bearerToken reads the Authorization header. Websocket upgrades may pass
// the token as a query parameter instead since browsers cannot set headers
// on them.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}

func PrincipalFrom(c *gin.Context) *domain.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*domain.Principal)
	return p
}

func AdminFrom(c *gin.Context) *domain.Admin {
	if p := PrincipalFrom(c); p.IsAdmin() {
		return p.Admin
	}
	return nil
}

func StudentFrom(c *gin.Context) *domain.Student {
	if p := PrincipalFrom(c); p.IsStudent() {
		return p.Student
	}
	return nil
}

// WithPrincipal stores p on the context. Tests and the websocket handshake
// use it directly.
func WithPrincipal(c *gin.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}
