package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// AlertStore is the slice of the CRUD store the alert sweep needs.
type AlertStore interface {
	GetActiveAlerts(ctx context.Context) ([]model.StockAlert, error)
	MarkTriggered(ctx context.Context, alertID int, triggeredAt time.Time) error
}

// AlertPublisher emits an event when an alert fires.
type AlertPublisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// AlertEvent is the payload published when a price alert triggers.
type AlertEvent struct {
	AlertID     int       `json:"alert_id"`
	Symbol      string    `json:"symbol"`
	AlertType   string    `json:"alert_type"`
	Threshold   string    `json:"threshold"`
	Price       float64   `json:"price"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// AlertService periodically evaluates active price alerts against the latest
// quotes. Symbols without a quote are left for the next sweep.
type AlertService struct {
	alerts    AlertStore
	cache     *FetchCache
	publisher AlertPublisher
	topic     string
	logger    *zap.Logger
	now       func() time.Time
}

// NewAlertService creates a new alert service
func NewAlertService(
	alerts AlertStore,
	cache *FetchCache,
	publisher AlertPublisher,
	topic string,
	logger *zap.Logger,
) *AlertService {
	return &AlertService{
		alerts:    alerts,
		cache:     cache,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckAlerts runs one sweep over all active alerts. Individual failures are
// logged and skipped; the sweep itself never fails part-way.
func (s *AlertService) CheckAlerts(ctx context.Context) {
	alerts, err := s.alerts.GetActiveAlerts(ctx)
	if err != nil {
		s.logger.Error("Failed to load active alerts", zap.Error(err))
		return
	}
	if len(alerts) == 0 {
		return
	}

	s.logger.Debug("Evaluating alerts", zap.Int("count", len(alerts)))

	for _, alert := range alerts {
		price, ok := s.cache.GetLatestPrice(ctx, alert.Symbol)
		if !ok {
			continue
		}

		if !s.isTriggered(ctx, alert, price) {
			continue
		}

		triggeredAt := s.now()
		if err := s.alerts.MarkTriggered(ctx, alert.ID, triggeredAt); err != nil {
			s.logger.Error("Failed to mark alert triggered",
				zap.Int("alert_id", alert.ID),
				zap.Error(err))
			continue
		}

		s.logger.Info("Alert triggered",
			zap.Int("alert_id", alert.ID),
			zap.String("symbol", alert.Symbol),
			zap.String("type", alert.AlertType),
			zap.Float64("price", price))

		if s.publisher == nil {
			continue
		}
		event := AlertEvent{
			AlertID:     alert.ID,
			Symbol:      alert.Symbol,
			AlertType:   alert.AlertType,
			Threshold:   alert.Threshold.String(),
			Price:       price,
			TriggeredAt: triggeredAt,
		}
		if err := s.publisher.Publish(ctx, s.topic, alert.Symbol, event); err != nil {
			s.logger.Error("Failed to publish alert event",
				zap.Int("alert_id", alert.ID),
				zap.Error(err))
		}
	}
}

// isTriggered evaluates one alert against the latest price. A change_pct
// alert compares the day-over-day move against the threshold magnitude.
func (s *AlertService) isTriggered(ctx context.Context, alert model.StockAlert, price float64) bool {
	current := decimal.NewFromFloat(price)

	switch alert.AlertType {
	case model.AlertTypeAbove:
		return current.GreaterThanOrEqual(alert.Threshold)
	case model.AlertTypeBelow:
		return current.LessThanOrEqual(alert.Threshold)
	case model.AlertTypeChangePct:
		series, ok := s.cache.GetSeries(ctx, alert.Symbol, "3mo")
		if !ok || series.Len() < 2 {
			return false
		}
		prev := series.Points[series.Len()-2].Close
		if prev == 0 {
			return false
		}
		changePct := decimal.NewFromFloat(100 * (price - prev) / prev)
		return changePct.Abs().GreaterThanOrEqual(alert.Threshold.Abs())
	default:
		s.logger.Warn("Unknown alert type",
			zap.Int("alert_id", alert.ID),
			zap.String("type", alert.AlertType))
		return false
	}
}
