package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

type fakeAlertStore struct {
	alerts    []model.StockAlert
	loadErr   error
	triggered []int
	markErr   error
}

func (s *fakeAlertStore) GetActiveAlerts(ctx context.Context) ([]model.StockAlert, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.alerts, nil
}

func (s *fakeAlertStore) MarkTriggered(ctx context.Context, alertID int, triggeredAt time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.triggered = append(s.triggered, alertID)
	return nil
}

type fakePublisher struct {
	events []AlertEvent
	topics []string
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, topic, key string, value interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, value.(AlertEvent))
	return nil
}

// quoteProvider serves fixed quotes and optionally a history series.
type quoteProvider struct {
	quotes map[string]float64
	points map[string][]model.PricePoint
}

func (p *quoteProvider) FetchHistory(ctx context.Context, symbol, period string) ([]model.PricePoint, error) {
	points, ok := p.points[symbol]
	if !ok {
		return nil, errors.New("no history")
	}
	return points, nil
}

func (p *quoteProvider) FetchQuote(ctx context.Context, symbol string) (float64, error) {
	price, ok := p.quotes[symbol]
	if !ok {
		return 0, errors.New("no quote")
	}
	return price, nil
}

func newAlertService(store *fakeAlertStore, provider MarketDataProvider, publisher AlertPublisher) *AlertService {
	cache, _ := newTestCache(provider)
	svc := NewAlertService(store, cache, publisher, "alert-events", zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestCheckAlertsAboveTriggers(t *testing.T) {
	store := &fakeAlertStore{alerts: []model.StockAlert{
		{ID: 1, Symbol: "A.NS", AlertType: model.AlertTypeAbove, Threshold: decimal.NewFromInt(100)},
		{ID: 2, Symbol: "B.NS", AlertType: model.AlertTypeAbove, Threshold: decimal.NewFromInt(500)},
	}}
	provider := &quoteProvider{quotes: map[string]float64{"A.NS": 120, "B.NS": 450}}
	publisher := &fakePublisher{}

	svc := newAlertService(store, provider, publisher)
	svc.CheckAlerts(context.Background())

	assert.Equal(t, []int{1}, store.triggered)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "A.NS", publisher.events[0].Symbol)
	assert.Equal(t, 120.0, publisher.events[0].Price)
	assert.Equal(t, []string{"alert-events"}, publisher.topics)
}

func TestCheckAlertsBelowTriggers(t *testing.T) {
	store := &fakeAlertStore{alerts: []model.StockAlert{
		{ID: 3, Symbol: "C.NS", AlertType: model.AlertTypeBelow, Threshold: decimal.NewFromInt(100)},
	}}
	provider := &quoteProvider{quotes: map[string]float64{"C.NS": 99.5}}

	svc := newAlertService(store, provider, nil)
	svc.CheckAlerts(context.Background())

	assert.Equal(t, []int{3}, store.triggered)
}

func TestCheckAlertsSkipsMissingQuotes(t *testing.T) {
	store := &fakeAlertStore{alerts: []model.StockAlert{
		{ID: 4, Symbol: "MISSING.NS", AlertType: model.AlertTypeAbove, Threshold: decimal.NewFromInt(10)},
	}}
	provider := &quoteProvider{quotes: map[string]float64{}}

	svc := newAlertService(store, provider, nil)
	svc.CheckAlerts(context.Background())

	assert.Empty(t, store.triggered)
}

func TestCheckAlertsChangePct(t *testing.T) {
	points := makePoints(60)
	lastClose := points[len(points)-1].Close
	prevClose := points[len(points)-2].Close
	movePct := 100 * (lastClose - prevClose) / prevClose

	store := &fakeAlertStore{alerts: []model.StockAlert{
		// Fires: threshold below the actual day-over-day move.
		{ID: 5, Symbol: "D.NS", AlertType: model.AlertTypeChangePct, Threshold: decimal.NewFromFloat(movePct / 2)},
		// Does not fire: threshold above the move.
		{ID: 6, Symbol: "D.NS", AlertType: model.AlertTypeChangePct, Threshold: decimal.NewFromFloat(movePct * 2)},
	}}
	provider := &quoteProvider{
		quotes: map[string]float64{"D.NS": lastClose},
		points: map[string][]model.PricePoint{"D.NS": points},
	}

	svc := newAlertService(store, provider, nil)
	svc.CheckAlerts(context.Background())

	assert.Equal(t, []int{5}, store.triggered)
}

func TestCheckAlertsMarkFailureSkipsPublish(t *testing.T) {
	store := &fakeAlertStore{
		alerts: []model.StockAlert{
			{ID: 7, Symbol: "E.NS", AlertType: model.AlertTypeAbove, Threshold: decimal.NewFromInt(10)},
		},
		markErr: errors.New("db down"),
	}
	provider := &quoteProvider{quotes: map[string]float64{"E.NS": 50}}
	publisher := &fakePublisher{}

	svc := newAlertService(store, provider, publisher)
	svc.CheckAlerts(context.Background())

	assert.Empty(t, publisher.events)
}

func TestCheckAlertsUnknownTypeIgnored(t *testing.T) {
	store := &fakeAlertStore{alerts: []model.StockAlert{
		{ID: 8, Symbol: "F.NS", AlertType: "sideways", Threshold: decimal.NewFromInt(10)},
	}}
	provider := &quoteProvider{quotes: map[string]float64{"F.NS": 50}}

	svc := newAlertService(store, provider, nil)
	svc.CheckAlerts(context.Background())

	assert.Empty(t, store.triggered)
}
