package v1

import (
	"net/http"

	"go-jobboard-backend/internal/delivery/http/response"
	"go-jobboard-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthUC usecase.HealthUsecase
}

func NewHealthHandler(r *gin.RouterGroup, healthUC usecase.HealthUsecase) {
	handler := &HealthHandler{healthUC: healthUC}
	r.GET("/health/", handler.Check)
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /health/ [get]
func (h *HealthHandler) Check(c *gin.Context) {
	status, healthy := h.healthUC.Check(c.Request.Context())
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Success:   false,
			Message:   "System degraded",
			Data:      status,
			RequestID: c.GetString("RequestID"),
		})
		return
	}
	response.Success(c, http.StatusOK, "System operational", status)
}
