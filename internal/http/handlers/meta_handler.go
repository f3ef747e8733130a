// Platform endpoints: liveness ping, service description and health.
package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// About describes the running service instance.
type About struct {
	Hostname    string    `json:"hostname"    example:"invitations-7d9c5b"`
	Type        string    `json:"type"        example:"invitations/v1"`
	Version     string    `json:"version"     example:"1.4.0"`
	Description string    `json:"description" example:"Game invitations service"`
	StartDate   time.Time `json:"startDate"   example:"2026-01-02T15:04:05Z"`
}

// NewAbout fills Hostname from the OS and StartDate with the current time.
func NewAbout(typ, version, description string) About {
	host, _ := os.Hostname()
	return About{
		Hostname:    host,
		Type:        typ,
		Version:     version,
		Description: description,
		StartDate:   time.Now().UTC(),
	}
}

// Ping godoc
// @ID          ping
// @Summary     Availability probe
// @Description Echoes the token back as "pong/{token}".
// @Tags        Platform
// @Produce     plain
// @Param       token  path  string  true  "Any value"  example(42)
// @Success     200  {string}  string  "pong/42"
// @Router      /ping/{token} [get]
// @Router      /ping/{token} [head]
func (h *Handlers) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong/%s", c.Param("token"))
}

// GetAbout godoc
// @ID          about
// @Summary     Describe the service
// @Tags        Platform
// @Produce     json
// @Success     200  {object}  handlers.About
// @Router      /about [get]
func (h *Handlers) GetAbout(c *gin.Context) {
	ok(c, http.StatusOK, h.about)
}

// Health godoc
// @ID          health
// @Summary     Liveness check
// @Tags        Platform
// @Produce     json
// @Success     200  {object}  map[string]string
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}
