package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go-jobboard-backend/internal/delivery/http/response"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/auth"
	"go-jobboard-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	msgNoCredentials = "Authentication credentials were not provided."
	msgBadToken      = "Given token not valid for any token type"
	msgForbidden     = "You do not have permission to perform this action."
)

// AuthMiddleware verifies the bearer access token and loads the user. The
// role always comes from storage, never from the token.
func AuthMiddleware(issuer *auth.Issuer, authUC domain.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if authHeader == "" || tokenString == "" || tokenString == authHeader {
			response.Error(c, http.StatusUnauthorized, msgNoCredentials, nil)
			c.Abort()
			return
		}

		claims, err := issuer.Verify(tokenString, auth.TokenTypeAccess)
		if err != nil {
			logTokenRejected(c, err.Error())
			response.Error(c, http.StatusUnauthorized, msgBadToken, nil)
			c.Abort()
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			logTokenRejected(c, "bad_subject")
			response.Error(c, http.StatusUnauthorized, msgBadToken, nil)
			c.Abort()
			return
		}

		// Fetch fresh user data from DB to get the correct Role
		user, err := authUC.GetCurrentUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logTokenRejected(c, "unknown_user")
				response.Error(c, http.StatusUnauthorized, "User not found", nil)
			} else {
				c.Error(err)
			}
			c.Abort()
			return
		}

		c.Set(string(domain.KeyUserID), user.ID)
		c.Set(string(domain.KeyUserEmail), user.Email)
		c.Set(string(domain.KeyUserRole), string(user.Role))

		ctx := context.WithValue(c.Request.Context(), domain.KeyUserID, user.ID)
		ctx = context.WithValue(ctx, domain.KeyUserRole, string(user.Role))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole rejects authenticated users whose role differs from role.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		u := &domain.User{ID: actor.ID, Role: actor.Role}
		if actor.ID == 0 {
			u = nil
		}
		if !domain.CanAccess(role, u) {
			security.DefaultLogger().LogAccessDenied(c.Request.Context(),
				strconv.FormatInt(actor.ID, 10), c.ClientIP(), c.GetString("RequestID"),
				c.FullPath(), "requires_role_"+string(role))
			response.Error(c, http.StatusForbidden, msgForbidden, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFrom returns the caller set by AuthMiddleware, or a zero Actor.
func ActorFrom(c *gin.Context) domain.Actor {
	id, _ := c.Get(string(domain.KeyUserID))
	userID, _ := id.(int64)
	return domain.Actor{
		ID:   userID,
		Role: domain.Role(c.GetString(string(domain.KeyUserRole))),
	}
}

func logTokenRejected(c *gin.Context, reason string) {
	security.DefaultLogger().Log(c.Request.Context(), security.SecurityEvent{
		Event:        security.EventTokenRejected,
		SubjectType:  "ip",
		SubjectValue: c.ClientIP(),
		IP:           c.ClientIP(),
		UserAgent:    c.GetHeader("User-Agent"),
		RequestID:    c.GetString("RequestID"),
		Details:      map[string]interface{}{"reason": reason, "endpoint": c.FullPath()},
	})
}
