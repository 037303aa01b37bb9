package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
)

type trackingService interface {
	Start(ctx context.Context, userID, farmID string) (domain.SessionSnapshot, error)
	Stop() (domain.SessionSnapshot, error)
	CurrentState() domain.TrackingState
	Zones() []domain.ZoneSummary
	CapturePosition(ctx context.Context, opts domain.CaptureOptions) (domain.CaptureResult, error)
	CancelCapture() error
}

type startRequest struct {
	UserID string `json:"user_id" binding:"required"`
	FarmID string `json:"farm_id" binding:"required"`
}

type captureRequest struct {
	TargetSamples   int     `json:"target_samples" binding:"omitempty,gte=1,lte=100"`
	TimeoutSeconds  int     `json:"timeout_seconds" binding:"omitempty,gte=1,lte=600"`
	AccuracyCeiling float64 `json:"accuracy_ceiling" binding:"omitempty,gt=0"`
}

type captureResponse struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Samples   int      `json:"samples"`
	TimedOut  bool     `json:"timed_out"`
	Timestamp int64    `json:"timestamp"`
}

type TrackingHandler struct {
	svc trackingService
}

func NewTrackingHandler(svc trackingService) *TrackingHandler {
	return &TrackingHandler{svc: svc}
}

func (h *TrackingHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/tracking")
	g.POST("/sessions", h.StartSession)
	g.POST("/sessions/stop", h.StopSession)
	g.GET("/state", h.GetState)
	g.GET("/zones", h.GetZones)
	g.POST("/captures", h.CapturePosition)
	g.DELETE("/captures", h.CancelCapture)
}

func (h *TrackingHandler) StartSession(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.svc.Start(c.Request.Context(), req.UserID, req.FarmID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *TrackingHandler) StopSession(c *gin.Context) {
	snap, err := h.svc.Stop()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *TrackingHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CurrentState())
}

func (h *TrackingHandler) GetZones(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Zones())
}

// CapturePosition blocks until the capture finishes. A client that hangs up
// cancels it.
func (h *TrackingHandler) CapturePosition(c *gin.Context) {
	var req captureRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	res, err := h.svc.CapturePosition(c.Request.Context(), domain.CaptureOptions{
		TargetSamples:   req.TargetSamples,
		Timeout:         time.Duration(req.TimeoutSeconds) * time.Second,
		AccuracyCeiling: req.AccuracyCeiling,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, captureResponse{
		Latitude:  res.Fix.Lat,
		Longitude: res.Fix.Lon,
		Accuracy:  res.Fix.Accuracy,
		Altitude:  res.Fix.Altitude,
		Samples:   res.Samples,
		TimedOut:  res.TimedOut,
		Timestamp: res.Fix.Timestamp.Unix(),
	})
}

func (h *TrackingHandler) CancelCapture(c *gin.Context) {
	if err := h.svc.CancelCapture(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondError(c *gin.Context, err error) {
	var zoneErr *domain.InvalidZoneError
	switch {
	case errors.Is(err, domain.ErrSessionAlreadyActive),
		errors.Is(err, domain.ErrSessionNotActive),
		errors.Is(err, domain.ErrCaptureInProgress),
		errors.Is(err, domain.ErrCaptureCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoCapture):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientSignal):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &zoneErr), errors.Is(err, domain.ErrInvalidFix):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the response
		c.Status(http.StatusRequestTimeout)
	default:
		log.Printf("tracking handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
