package httpapi

import (
	"log/slog"
	"net/http"

	"social-lab/repositories"

	"github.com/gin-gonic/gin"
)

type VPNHandlers struct {
	logs *repositories.VPNLogRepository
	log  *slog.Logger
}

func NewVPNHandlers(log *slog.Logger, logs *repositories.VPNLogRepository) *VPNHandlers {
	return &VPNHandlers{logs: logs, log: log}
}

func (h *VPNHandlers) Recent(c *gin.Context) {
	logs, err := h.logs.Recent(100)
	if err != nil {
		h.log.Error("fetching VPN logs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch VPN logs"})
		return
	}
	if logs == nil {
		logs = []repositories.VPNLog{}
	}
	c.JSON(http.StatusOK, logs)
}

func (h *VPNHandlers) Stats(c *gin.Context) {
	stats, err := h.logs.Stats()
	if err != nil {
		h.log.Error("fetching VPN stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch VPN statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *VPNHandlers) ByIP(c *gin.Context) {
	logs, err := h.logs.ByIP(c.Param("ip"))
	if err != nil {
		h.log.Error("fetching IP logs failed", "ip", c.Param("ip"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch IP logs"})
		return
	}
	if logs == nil {
		logs = []repositories.VPNLog{}
	}
	c.JSON(http.StatusOK, logs)
}
