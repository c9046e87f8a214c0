package server

import (
	"net/http"
	"strings"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/storage"
	"github.com/gin-gonic/gin"
)

// registerObjectRoutes serves uploaded images when the in-process store backs
// the catalog. A real bucket serves its own URLs.
func (s *Server) registerObjectRoutes() {
	mem, ok := s.store.(*storage.MemoryStore)
	if !ok {
		return
	}
	s.engine.GET("/storage/:bucket/*key", func(c *gin.Context) {
		obj, found := mem.Get(strings.TrimPrefix(c.Param("key"), "/"))
		if !found {
			AbortWithError(c, ErrNotFound)
			return
		}
		contentType := obj.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Data(http.StatusOK, contentType, obj.Data)
	})
}
