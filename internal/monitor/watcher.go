// Package monitor runs background housekeeping over registered devices.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reservoireye/internal/logger"
	"github.com/reservoireye/internal/metrics"
	"github.com/reservoireye/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// DeviceWatcher marks devices offline once they stop reporting. Devices in
// maintenance are left alone.
type DeviceWatcher struct {
	db           *gorm.DB
	interval     time.Duration
	offlineAfter time.Duration
	now          func() time.Time
	log          zerolog.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

func NewDeviceWatcher(db *gorm.DB, interval, offlineAfter time.Duration) *DeviceWatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DeviceWatcher{
		db:           db,
		interval:     interval,
		offlineAfter: offlineAfter,
		now:          time.Now,
		log:          logger.WithComponent("monitor"),
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval until Stop is
// called or ctx is done.
func (w *DeviceWatcher) Start(ctx context.Context) {
	if _, err := w.Sweep(ctx); err != nil {
		w.log.Error().Err(err).Msg("device sweep failed")
	}

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := w.Sweep(ctx); err != nil {
					w.log.Error().Err(err).Msg("device sweep failed")
				}
			case <-w.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it to exit.
func (w *DeviceWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	<-w.done
}

// Sweep flips stale online devices to offline and returns how many changed.
func (w *DeviceWatcher) Sweep(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().Add(-w.offlineAfter)
	res := w.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("status = ?", models.DeviceStatusOnline).
		Where("last_seen IS NULL OR last_seen < ?", cutoff).
		Update("status", models.DeviceStatusOffline)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark devices offline: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.DevicesMarkedOffline.Add(float64(res.RowsAffected))
		w.log.Info().Int64("devices", res.RowsAffected).Msg("devices marked offline")
	}
	return res.RowsAffected, nil
}
