package v1

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/storage"

	"github.com/gin-gonic/gin"
)

// publicFolders are the storage folders served without authentication.
// Resumes are deliberately absent.
var publicFolders = []string{"profile_pics"}

type MediaHandler struct {
	store storage.ObjectStore
}

func NewMediaHandler(r gin.IRoutes, store storage.ObjectStore) {
	handler := &MediaHandler{store: store}
	for _, folder := range publicFolders {
		r.GET(storage.PublicPrefix+folder+"/*path", handler.Serve)
	}
}

// ServeMedia godoc
// @Summary      Serve a public media file
// @Tags         media
// @Produce      image/jpeg
// @Param        path  path  string  true  "Object path"
// @Success      200   {file}  binary
// @Failure      404   {object}  response.Response
// @Router       /media/profile_pics/{path} [get]
func (h *MediaHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Request.URL.Path, storage.PublicPrefix)
	if strings.Contains(key, "..") {
		c.Error(apperror.NotFound("Not found."))
		return
	}

	body, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			c.Error(apperror.NotFound("Not found."))
			return
		}
		c.Error(apperror.Internal(err))
		return
	}
	defer body.Close()

	contentType := "application/octet-stream"
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".gif":
		contentType = "image/gif"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, body, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}
