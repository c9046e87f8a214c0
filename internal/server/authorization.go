package server

import (
	"strings"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/authorization"
	"github.com/gin-gonic/gin"
)

func (s *Server) authorizeAction(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := callerFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), caller.Role, authorization.ObjectProduct, strings.TrimSpace(action)); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
