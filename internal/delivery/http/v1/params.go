package v1

import (
	"strconv"

	"go-jobboard-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// pathID parses a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("Not found.")
	}
	return id, nil
}

// queryID parses an optional positive int64 query parameter; absent is 0.
func queryID(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.BadRequest("Invalid " + name + " parameter")
	}
	return id, nil
}
