package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/sketch-relay/internal/consts"
	"github.com/reusedev/sketch-relay/internal/service/http/handler/response"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.Health{
		Status:        consts.HealthyStatus,
		APIConfigured: h.cfg.APIConfigured(),
		Service:       consts.ServiceName,
	})
}
