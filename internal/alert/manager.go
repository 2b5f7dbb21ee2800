package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/logger"
	"github.com/reservoireye/internal/metrics"
	"github.com/reservoireye/internal/models"
	"github.com/reservoireye/internal/notify"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AlertManager evaluates the active rules of a reservoir against each newly
// stored measurement and records one delivery attempt per fired rule.
type AlertManager struct {
	db         *gorm.DB
	rules      *RuleManager
	history    *AlertHistory
	dispatcher notify.Dispatcher

	dispatchTimeout time.Duration
	skipBannedOwner bool
	now             func() time.Time
	log             zerolog.Logger
}

type Option func(*AlertManager)

// WithDispatchTimeout bounds each notification attempt. Zero disables the
// bound.
func WithDispatchTimeout(d time.Duration) Option {
	return func(m *AlertManager) { m.dispatchTimeout = d }
}

// WithBannedOwnerPolicy controls whether reservoirs of banned users are
// evaluated.
func WithBannedOwnerPolicy(skip bool) Option {
	return func(m *AlertManager) { m.skipBannedOwner = skip }
}

// WithClock overrides the time source used for triggered_at.
func WithClock(now func() time.Time) Option {
	return func(m *AlertManager) { m.now = now }
}

func NewAlertManager(db *gorm.DB, rules *RuleManager, history *AlertHistory, dispatcher notify.Dispatcher, opts ...Option) *AlertManager {
	m := &AlertManager{
		db:              db,
		rules:           rules,
		history:         history,
		dispatcher:      dispatcher,
		dispatchTimeout: 10 * time.Second,
		skipBannedOwner: true,
		now:             time.Now,
		log:             logger.WithComponent("alert"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnMeasurementAccepted runs evaluation for a measurement that has already
// been persisted. Nothing is returned: notification and history failures
// are logged and never reach the submitter of the measurement.
func (m *AlertManager) OnMeasurementAccepted(ctx context.Context, reservoirID uint, value float64) {
	log := m.log.With().Uint("reservoir_id", reservoirID).Float64("value", value).Logger()

	var reservoir models.Reservoir
	err := m.db.WithContext(ctx).
		Joins("User").
		Where("reservoirs.id = ?", reservoirID).
		First(&reservoir).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Debug().Msg("reservoir not found, nothing to evaluate")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to load reservoir")
		return
	}
	owner := reservoir.User
	if owner.ID == 0 {
		log.Debug().Msg("reservoir has no owner, nothing to evaluate")
		return
	}
	if owner.IsBanned && m.skipBannedOwner {
		log.Info().Uint("user_id", owner.ID).Msg("owner is banned, skipping evaluation")
		return
	}

	rules, err := m.rules.ActiveRules(ctx, reservoirID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load active rules")
		return
	}

	for i := range rules {
		rule := &rules[i]
		metrics.AlertRulesEvaluatedTotal.Inc()
		if !EvaluateRule(rule, value) {
			continue
		}
		metrics.AlertRulesTriggeredTotal.Inc()
		m.fire(ctx, &reservoir, &owner, rule, value)
	}
}

// fire moves one triggered rule through dispatching to a recorded outcome.
func (m *AlertManager) fire(ctx context.Context, reservoir *models.Reservoir, owner *models.User, rule *models.AlertRule, value float64) {
	log := m.log.With().
		Uint("reservoir_id", reservoir.ID).
		Uint("rule_id", rule.ID).
		Logger()

	triggeredAt := m.now().UTC()
	subject, body := formatAlertMessage(reservoir, rule, value, triggeredAt)

	status := models.AlertStatusSent
	if err := m.dispatch(ctx, owner.Email, subject, body); err != nil {
		status = models.AlertStatusFailed
		log.Warn().Err(err).Str("to", owner.Email).Msg("alert notification failed")
	}

	event := &models.AlertEvent{
		RuleID:      rule.ID,
		TriggeredAt: triggeredAt,
		SentTo:      owner.Email,
		Status:      status,
	}
	if err := m.history.Append(ctx, event); err != nil {
		metrics.AlertEventWriteFailures.Inc()
		log.Error().Err(err).Str("status", string(status)).Msg("failed to record alert event")
		return
	}

	log.Info().
		Uint("event_id", event.ID).
		Str("status", string(status)).
		Msg("alert recorded")
}

func (m *AlertManager) dispatch(ctx context.Context, to, subject, body string) (err error) {
	channel := m.dispatcher.Type()
	if m.dispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.dispatchTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.PanicsRecovered.WithLabelValues("dispatcher").Inc()
			err = fmt.Errorf("%w: panic: %v", apperror.ErrDispatch, r)
		}
		metrics.AlertDispatchDuration.WithLabelValues(channel).Observe(time.Since(start).Seconds())
		outcome := string(models.AlertStatusSent)
		if err != nil {
			outcome = string(models.AlertStatusFailed)
		}
		metrics.AlertDispatchTotal.WithLabelValues(channel, outcome).Inc()
	}()

	if err := m.dispatcher.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrDispatch, err)
	}
	return nil
}

func formatAlertMessage(reservoir *models.Reservoir, rule *models.AlertRule, value float64, at time.Time) (string, string) {
	subject := fmt.Sprintf("Reservoir alert: %s", reservoir.Name)
	body := fmt.Sprintf(`Reservoir: %s
Current Value: %.2f
Condition: %s (%s)
Threshold: %.2f
Rule: #%d
Time: %s
`, reservoir.Name, value,
		rule.ConditionType, rule.ConditionType.Symbol(),
		rule.Threshold, rule.ID,
		at.Format(time.RFC3339))
	return subject, body
}
