package auth

import (
	"errors"
	"strings"

	"mentorbook/internal/api"
	"mentorbook/internal/apperr"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
)

var (
	errMissingHeader = apperr.New(apperr.KindUnauthorized, "authorization header required")
	errBadHeader     = apperr.New(apperr.KindUnauthorized, "authorization header must be a bearer token")
	errExpired       = apperr.New(apperr.KindUnauthorized, "token expired")
	errBadToken      = apperr.New(apperr.KindUnauthorized, "invalid or malformed token")
	errNotAccess     = apperr.New(apperr.KindUnauthorized, "access token required")
	errNoRole        = apperr.New(apperr.KindUnauthorized, "no authenticated role")
)

// AuthMiddleware authenticates a bearer access token and stores the caller's
// id and role on the context.
func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, err)
			return
		}

		claims, err := ValidateToken(token, accessTokenSecret)
		switch {
		case errors.Is(err, ErrTokenExpired):
			abort(c, errExpired)
			return
		case err != nil:
			abort(c, errBadToken)
			return
		case claims.TokenType != "access":
			abort(c, errNotAccess)
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxUserRole, claims.Role)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || scheme != "Bearer" || token == "" {
		return "", errBadHeader
	}
	return token, nil
}

// RequireRole admits callers holding any of roles. It must run after
// AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			abort(c, errNoRole)
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abort(c, apperr.New(apperr.KindForbidden, "role "+role+" may not access this resource"))
	}
}

func abort(c *gin.Context, err error) {
	api.RespondError(c, err)
	c.Abort()
}

func GetUserID(c *gin.Context) (string, bool) {
	return stringValue(c, ctxUserID)
}

func GetRole(c *gin.Context) (string, bool) {
	return stringValue(c, ctxUserRole)
}

func stringValue(c *gin.Context, key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
