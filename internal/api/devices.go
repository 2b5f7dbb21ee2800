package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/auth"
	"github.com/reservoireye/internal/metrics"
	"github.com/reservoireye/internal/models"
	"github.com/reservoireye/internal/store"
)

type deviceResponse struct {
	ID          uint                `json:"id"`
	UserID      uint                `json:"user_id"`
	ReservoirID *uint               `json:"reservoir_id"`
	Name        string              `json:"name"`
	APIKey      string              `json:"api_key"`
	Status      models.DeviceStatus `json:"status"`
	LastSeen    *time.Time          `json:"last_seen"`
}

// newDeviceResponse shows the full API key only right after it is issued.
func newDeviceResponse(d *models.Device, revealKey bool) deviceResponse {
	key := d.MaskedAPIKey()
	if revealKey {
		key = d.APIKey
	}
	return deviceResponse{
		ID:          d.ID,
		UserID:      d.UserID,
		ReservoirID: d.ReservoirID,
		Name:        d.Name,
		APIKey:      key,
		Status:      d.Status,
		LastSeen:    d.LastSeen,
	}
}

func (s *Server) listDevices(c *gin.Context) {
	devices, err := s.devices.List(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]deviceResponse, 0, len(devices))
	for i := range devices {
		resp = append(resp, newDeviceResponse(&devices[i], false))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createDevice(c *gin.Context) {
	var req store.DeviceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := s.devices.Create(c.Request.Context(), auth.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newDeviceResponse(d, true))
}

func (s *Server) getDevice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	d, err := s.devices.Get(c.Request.Context(), id, auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDeviceResponse(d, false))
}

func (s *Server) updateDevice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req store.DeviceUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := s.devices.Update(c.Request.Context(), id, auth.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDeviceResponse(d, false))
}

func (s *Server) deleteDevice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.devices.Delete(c.Request.Context(), id, auth.CurrentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) rotateDeviceKey(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	d, err := s.devices.RotateKey(c.Request.Context(), id, auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDeviceResponse(d, true))
}

// submitMeasurement stores a reading from a device and runs alert
// evaluation for the device's reservoir. Evaluation never changes the
// response once the reading is stored.
func (s *Server) submitMeasurement(c *gin.Context) {
	device := auth.CurrentDevice(c)

	var req struct {
		Value     *float64   `json:"value" binding:"required"`
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var at time.Time
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	m, err := s.measurements.Add(c.Request.Context(), device.ID, *req.Value, at)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.MeasurementsIngestedTotal.Inc()

	if device.ReservoirID != nil {
		s.alertManager.OnMeasurementAccepted(c.Request.Context(), *device.ReservoirID, m.Value)
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) listMeasurements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := s.devices.Get(c.Request.Context(), id, auth.CurrentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}

	var q store.HistoryQuery
	var err error
	if raw := c.Query("from"); raw != "" {
		if q.From, err = time.Parse(time.RFC3339, raw); err != nil {
			respondError(c, fmt.Errorf("%w: from must be RFC3339", apperror.ErrInvalidArgument))
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if q.To, err = time.Parse(time.RFC3339, raw); err != nil {
			respondError(c, fmt.Errorf("%w: to must be RFC3339", apperror.ErrInvalidArgument))
			return
		}
	}
	if q.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}

	history, err := s.measurements.History(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
