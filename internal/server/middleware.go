package server

import (
	"strings"

	obscontext "github.com/ThienHoan/Web-TramHuong-sub001/internal/observability/context"
	productdomain "github.com/ThienHoan/Web-TramHuong-sub001/internal/product/domain"
	"github.com/gin-gonic/gin"
)

const contextCallerKey = "catalog_caller"

// AuthRequired verifies the bearer token and stores the caller on the context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextCallerKey, productdomain.Caller{
			UserID: identity.UserID,
			Role:   identity.Role,
		})
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), "user", identity.UserID))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func callerFromContext(c *gin.Context) (productdomain.Caller, bool) {
	value, ok := c.Get(contextCallerKey)
	if !ok {
		return productdomain.Caller{}, false
	}
	caller, ok := value.(productdomain.Caller)
	return caller, ok
}
