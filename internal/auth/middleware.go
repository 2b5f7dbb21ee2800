package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/models"
	"github.com/reservoireye/internal/store"
)

const (
	userKey   = "user"
	deviceKey = "device"

	APIKeyHeader = "x-api-key"
)

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperror.JSON(err))
}

// AuthMiddleware authenticates users by bearer token. Banned users are
// rejected even while their token is still valid.
func AuthMiddleware(tokens *TokenManager, users *store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, fmt.Errorf("%w: authorization header required", apperror.ErrUnauthorized))
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == header {
			abort(c, fmt.Errorf("%w: bearer token required", apperror.ErrUnauthorized))
			return
		}

		claims, err := tokens.ParseToken(raw)
		if err != nil {
			abort(c, err)
			return
		}

		user, err := users.Get(c.Request.Context(), claims.UserID)
		if errors.Is(err, apperror.ErrNotFound) {
			abort(c, fmt.Errorf("%w: user no longer exists", apperror.ErrUnauthorized))
			return
		}
		if err != nil {
			abort(c, err)
			return
		}
		if user.IsBanned {
			abort(c, fmt.Errorf("%w: account is banned", apperror.ErrPermissionDenied))
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user != nil {
			for _, role := range roles {
				if user.Role == role {
					c.Next()
					return
				}
			}
		}
		abort(c, fmt.Errorf("%w: insufficient permissions", apperror.ErrPermissionDenied))
	}
}

// DeviceMiddleware authenticates a device by its API key. Devices owned by a
// banned user are rejected.
func DeviceMiddleware(devices *store.DeviceStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		device, err := devices.ByAPIKey(c.Request.Context(), c.GetHeader(APIKeyHeader))
		if err != nil {
			abort(c, err)
			return
		}
		if device.User.IsBanned {
			abort(c, fmt.Errorf("%w: device owner is banned", apperror.ErrPermissionDenied))
			return
		}

		c.Set(deviceKey, device)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CurrentDevice returns the authenticated device, or nil outside
// DeviceMiddleware.
func CurrentDevice(c *gin.Context) *models.Device {
	v, ok := c.Get(deviceKey)
	if !ok {
		return nil
	}
	device, _ := v.(*models.Device)
	return device
}
