// Package httpapi exposes the lounge over HTTP with gin.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loungeclock/internal/app/format"
	"github.com/osa030/loungeclock/internal/app/notification"
	"github.com/osa030/loungeclock/internal/app/session"
	"github.com/osa030/loungeclock/internal/app/session/registry"
	"github.com/osa030/loungeclock/internal/app/session/state"
	"github.com/osa030/loungeclock/internal/app/summary"
	"github.com/osa030/loungeclock/internal/domain/pricing"
	"github.com/osa030/loungeclock/internal/domain/station"
	"github.com/osa030/loungeclock/internal/domain/tier"
)

// Lounge is the part of session.Manager the handlers need.
type Lounge interface {
	Add(req registry.AddRequest) (station.View, error)
	Pause(id string) (station.View, bool, error)
	Resume(id string) (station.View, bool, error)
	End(id string) (station.View, bool, error)
	Remove(id string) (station.View, bool, error)
	Get(id string) (station.View, error)
	Snapshot() []station.View
	Today() summary.Daily
	Tiers() []*tier.Tier
	Availability() []session.TierAvailability
	Info() state.Info
	Subscribe(stream notification.Stream) string
	Unsubscribe(subscriptionID string)
	Done() <-chan struct{}
}

var _ Lounge = (*session.Manager)(nil)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	lounge       Lounge
	pingInterval time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(lounge Lounge, pingInterval time.Duration) *Handler {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	return &Handler{
		lounge:       lounge,
		pingInterval: pingInterval,
	}
}

type addStationRequest struct {
	Tier        string `json:"tier"`
	PlayerName  string `json:"playerName" binding:"max=64"`
	Phone       string `json:"phone" binding:"max=20"`
	Controllers int    `json:"controllers"`
	Minutes     int    `json:"minutes"`
	Notes       string `json:"notes" binding:"max=500"`
}

type transitionResponse struct {
	Applied bool            `json:"applied"`
	Station stationResponse `json:"station"`
}

// GetTiers handles GET /api/tiers.
func (h *Handler) GetTiers(c *gin.Context) {
	c.JSON(http.StatusOK, newTierResponses(h.lounge.Tiers()))
}

// GetQuote handles GET /api/quote?tier=&minutes=&controllers=.
func (h *Handler) GetQuote(c *gin.Context) {
	var t *tier.Tier
	for _, candidate := range h.lounge.Tiers() {
		if candidate.ID == c.Query("tier") {
			t = candidate
			break
		}
	}
	if t == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "field": "tier", "message": "unknown tier"})
		return
	}

	minutes, err := strconv.Atoi(c.Query("minutes"))
	if err != nil || minutes <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "field": "minutes", "message": "must be a positive integer"})
		return
	}
	controllers := 1
	if raw := c.Query("controllers"); raw != "" {
		if controllers, err = strconv.Atoi(raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "field": "controllers", "message": "must be an integer"})
			return
		}
	}

	if controllers > t.MaxControllers {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "field": "controllers", "message": "too many controllers"})
		return
	}

	controllers = pricing.ClampControllers(controllers)
	cost := pricing.Cost(t, minutes, controllers)
	c.JSON(http.StatusOK, gin.H{
		"tier":        t.ID,
		"minutes":     minutes,
		"controllers": controllers,
		"cost":        cost,
		"costText":    format.Currency(cost),
	})
}

// GetStations handles GET /api/stations.
func (h *Handler) GetStations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stations":     newStationResponses(h.lounge.Snapshot()),
		"availability": h.lounge.Availability(),
	})
}

// GetStation handles GET /api/stations/:id.
func (h *Handler) GetStation(c *gin.Context) {
	v, err := h.lounge.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStationResponse(v))
}

// GetSummary handles GET /api/summary.
func (h *Handler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, newSummaryResponse(h.lounge.Today()))
}

// PostStation handles POST /api/stations.
func (h *Handler) PostStation(c *gin.Context) {
	var req addStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	v, err := h.lounge.Add(registry.AddRequest{
		TierID:           req.Tier,
		PlayerName:       req.PlayerName,
		Phone:            req.Phone,
		Controllers:      req.Controllers,
		RequestedMinutes: req.Minutes,
		Notes:            req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newStationResponse(v))
}

// PauseStation handles POST /api/stations/:id/pause.
func (h *Handler) PauseStation(c *gin.Context) {
	h.transition(c, h.lounge.Pause)
}

// ResumeStation handles POST /api/stations/:id/resume.
func (h *Handler) ResumeStation(c *gin.Context) {
	h.transition(c, h.lounge.Resume)
}

// EndStation handles POST /api/stations/:id/end.
func (h *Handler) EndStation(c *gin.Context) {
	h.transition(c, h.lounge.End)
}

// DeleteStation handles DELETE /api/stations/:id.
func (h *Handler) DeleteStation(c *gin.Context) {
	h.transition(c, h.lounge.Remove)
}

func (h *Handler) transition(c *gin.Context, fn func(string) (station.View, bool, error)) {
	v, applied, err := fn(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transitionResponse{
		Applied: applied,
		Station: newStationResponse(v),
	})
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	info := h.lounge.Info()
	status := http.StatusOK
	if info.Phase != state.PhaseOpen {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, info)
}

func writeError(c *gin.Context, err error) {
	var verr *registry.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"field":   verr.Field,
			"message": verr.Error(),
		})
	case errors.Is(err, registry.ErrStationNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": err.Error(),
		})
	case errors.Is(err, session.ErrNotOpen):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":   "unavailable",
			"message": err.Error(),
		})
	default:
		zlog.Error().Msgf("request failed: path=%s err=%v", c.FullPath(), err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal",
			"message": "internal error",
		})
	}
}
