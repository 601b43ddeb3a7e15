package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	domainbooking "vendorhub/internal/domain/booking"
)

const principalContextKey = "vendorhub.principal"

var errInvalidRole = errors.New("token role must be customer, vendor or admin")

type principal struct {
	ID   string
	Role domainbooking.Role
}

// Claims is the bearer token body: sub is the user id, role one of customer|vendor|admin.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware resolves a bearer JWT into the request principal. Requests without a valid
// token continue anonymously and fail at requireRole.
type AuthMiddleware struct {
	Secret []byte
	Logger *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || len(m.Secret) == 0 {
		c.Next()
		return
	}
	p, err := m.parse(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	setPrincipal(c, p)
	c.Next()
}

func (m AuthMiddleware) parse(raw string) (principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return principal{}, err
	}
	role := domainbooking.Role(strings.ToLower(strings.TrimSpace(claims.Role)))
	switch role {
	case domainbooking.RoleCustomer, domainbooking.RoleVendor, domainbooking.RoleAdmin:
	default:
		return principal{}, fmt.Errorf("%w: %q", errInvalidRole, claims.Role)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return principal{}, errors.New("token subject is empty")
	}
	return principal{ID: claims.Subject, Role: role}, nil
}

// IssueToken signs an HS256 token for subject and role.
func IssueToken(secret []byte, subject string, role domainbooking.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// requireRole writes 401 or 403 and reports false when the caller may not proceed. With no
// roles any authenticated caller passes.
func requireRole(c *gin.Context, roles ...domainbooking.Role) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody{Error: "auth required", Code: "UNAUTHENTICATED"})
		return principal{}, false
	}
	if len(roles) == 0 {
		return p, true
	}
	for _, r := range roles {
		if p.Role == r {
			return p, true
		}
	}
	c.JSON(http.StatusForbidden, errorBody{Error: "insufficient permissions", Code: "FORBIDDEN"})
	return principal{}, false
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
