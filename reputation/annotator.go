// Package reputation annotates inbound requests with a VPN/proxy suspicion
// flag. The flag is metadata only: authentication and messaging decisions
// never depend on it, and every failure here is swallowed.
package reputation

import (
	"context"
	"log/slog"
	"strings"

	"social-lab/repositories"

	"github.com/gin-gonic/gin"
)

// vpnIndicators are the provider organization substrings treated as
// suspicious.
var vpnIndicators = []string{"vpn", "proxy", "hosting", "datacenter", "cloud"}

// DetailsProvider exposes raw provider fields for one address.
type DetailsProvider interface {
	Details(ctx context.Context, ip string) (map[string]string, error)
}

type Annotator struct {
	provider DetailsProvider
	logs     *repositories.VPNLogRepository
	log      *slog.Logger
}

func NewAnnotator(log *slog.Logger, provider DetailsProvider, logs *repositories.VPNLogRepository) *Annotator {
	return &Annotator{provider: provider, logs: logs, log: log}
}

// Middleware enriches each request with the suspicion flag and records the
// lookup. The request always continues, flagged or not, looked up or not.
func (a *Annotator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		details, err := a.provider.Details(c.Request.Context(), ip)
		if err != nil {
			a.log.Warn("VPN detection error", "ip", ip, "error", err)
			c.Next()
			return
		}

		flagged := isSuspicious(details)

		if err := a.logs.Store(repositories.VPNLog{
			IP:        ip,
			IsVPN:     flagged,
			Details:   details,
			UserAgent: c.Request.UserAgent(),
		}); err != nil {
			a.log.Warn("storing VPN log failed", "ip", ip, "error", err)
		}

		if flagged {
			c.Header("X-VPN-Detected", "true")
		}
		c.Next()
	}
}

func isSuspicious(details map[string]string) bool {
	haystack := strings.ToLower(details["org"] + " " + details["company"])
	for _, indicator := range vpnIndicators {
		if strings.Contains(haystack, indicator) {
			return true
		}
	}
	return false
}
