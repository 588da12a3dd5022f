package alerts

import (
	"context"
	"sync"
	"time"

	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

var alertlog = logf.Log.WithName("alerts")

// Manager fans operational failures out to the configured notifiers. It is a
// consumer of the audit log's error channel and of engine corruption
// reports; it never feeds back into the decision path.
type Manager struct {
	mu     sync.RWMutex
	router *Router
}

func NewManager(router *Router) *Manager {
	return &Manager{router: router}
}

func (m *Manager) Update(
	key string,
	notifier Notifier,
) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.router.Update(key, notifier)
}

func (m *Manager) resolve(route string) Notifier {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.router == nil {
		return nil
	}
	return m.router.Resolve(route)
}

// WatchAuditErrors drains the audit operational-error channel until the
// context ends, alerting on every reported failure.
func (m *Manager) WatchAuditErrors(ctx context.Context, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			m.send(ctx, "audit", AlertMessage{
				Component:  "audit",
				Summary:    "Audit write failure",
				Detail:     err.Error(),
				OccurredAt: time.Now(),
			})
		}
	}
}

// ReportCorruption raises an alert for an index-corruption error. These are
// engine bugs, not policy outcomes, and must reach an operator.
func (m *Manager) ReportCorruption(ctx context.Context, err error) {
	m.send(ctx, "engine", AlertMessage{
		Component:  "engine",
		Summary:    "Binding index corruption",
		Detail:     err.Error(),
		OccurredAt: time.Now(),
	})
}

func (m *Manager) send(ctx context.Context, route string, msg AlertMessage) {
	notifier := m.resolve(route)
	if notifier == nil {
		return
	}
	if err := notifier.SendAlert(ctx, msg); err != nil {
		alertlog.Error(err, "failed to deliver alert", "component", msg.Component)
	}
}
