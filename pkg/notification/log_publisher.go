package notification

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// LogPublisher writes alerts to the log. It is used when no broker is configured and
// keeps the published alerts for inspection.
type LogPublisher struct {
	mu        sync.Mutex
	published []BudgetAlert
}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(_ context.Context, alert BudgetAlert) error {
	log.Infof("Budget %d of user %d %s: spent %s of %s", alert.BudgetId, alert.UserId, alert.Level,
		alert.Spent.StringFixed(2), alert.Amount.StringFixed(2))
	p.mu.Lock()
	p.published = append(p.published, alert)
	p.mu.Unlock()
	return nil
}

func (p *LogPublisher) Published() []BudgetAlert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]BudgetAlert(nil), p.published...)
}

func (p *LogPublisher) Close() error {
	return nil
}
