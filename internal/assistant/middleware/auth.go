// Package middleware provides gin middleware for the assistant API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	"github.com/campus-io/study-buddy/internal/model"
	jwtopts "github.com/campus-io/study-buddy/pkg/options/jwt"
	"github.com/campus-io/study-buddy/pkg/utils/errors"
)

// userContextKey is the gin context key the session user is stored
// under.
const userContextKey = "session.user"

// sessionClaims are the verified token claims. Subject carries the
// user ID.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// Session verifies an optional bearer token and loads the user profile
// into the request context. Requests without a token proceed as guest;
// requests with an invalid token are rejected.
func Session(opts *jwtopts.Options, users *biz.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			abortUnauthorized(c, "invalid authorization header")
			return
		}

		claims := &sessionClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return []byte(opts.Key), nil
		}, jwt.WithValidMethods([]string{opts.SigningMethod}))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		if opts.Issuer != "" && claims.Issuer != opts.Issuer {
			abortUnauthorized(c, "invalid token issuer")
			return
		}

		user, err := users.Get(c.Request.Context(), claims.Subject)
		if err != nil {
			abortUnauthorized(c, "unknown user")
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireUser rejects guest requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserFrom(c) == nil {
			abortUnauthorized(c, errors.ErrUnauthorized.Msg)
			return
		}
		c.Next()
	}
}

// RequireProfessor rejects requests from anyone but professors.
func RequireProfessor() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFrom(c)
		if user == nil {
			abortUnauthorized(c, errors.ErrUnauthorized.Msg)
			return
		}
		if user.Role != model.RoleProfessor {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    errors.ErrForbidden.Code,
				"message": errors.ErrForbidden.Msg,
			})
			return
		}
		c.Next()
	}
}

// UserFrom returns the session user, or nil for guests.
func UserFrom(c *gin.Context) *model.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    errors.ErrUnauthorized.Code,
		"message": message,
	})
}
