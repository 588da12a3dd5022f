package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []AlertMessage
}

func (n *fakeNotifier) SendAlert(
	ctx context.Context,
	msg AlertMessage,
) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.messages = append(n.messages, msg)
	return nil
}

func (n *fakeNotifier) all() []AlertMessage {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]AlertMessage(nil), n.messages...)
}

func TestRouterResolve(t *testing.T) {
	fallback := &fakeNotifier{}
	auditOnly := &fakeNotifier{}

	router := NewRouter("default", map[string]Notifier{
		"default": fallback,
		"audit":   auditOnly,
	})

	if got := router.Resolve("audit"); got != Notifier(auditOnly) {
		t.Error("expected the audit route")
	}
	if got := router.Resolve("engine"); got != Notifier(fallback) {
		t.Error("expected fallback to the default route")
	}
	if got := NewRouter("", nil).Resolve("audit"); got != nil {
		t.Error("expected nil from an empty router")
	}
}

func TestReportCorruption(t *testing.T) {
	notifier := &fakeNotifier{}
	mgr := NewManager(NewRouter("default", map[string]Notifier{"default": notifier}))

	mgr.ReportCorruption(context.Background(), errors.New("binding index corrupted"))

	messages := notifier.all()
	if len(messages) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(messages))
	}
	if messages[0].Component != "engine" {
		t.Errorf("unexpected component %q", messages[0].Component)
	}
}

func TestWatchAuditErrors(t *testing.T) {
	notifier := &fakeNotifier{}
	mgr := NewManager(NewRouter("default", map[string]Notifier{"default": notifier}))

	errs := make(chan error, 1)
	errs <- errors.New("audit sink write failed")
	close(errs)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	mgr.WatchAuditErrors(ctx, errs)

	messages := notifier.all()
	if len(messages) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(messages))
	}
	if messages[0].Component != "audit" {
		t.Errorf("unexpected component %q", messages[0].Component)
	}
}

func TestEmailNotifierRoutesAsDefault(t *testing.T) {
	notifier := NewEmailNotifier("smtp.example.com:587", "authgate@example.com", []string{"oncall@example.com"})
	if notifier == nil {
		t.Fatal("expected a constructed notifier")
	}

	mgr := NewManager(NewRouter("default", nil))
	mgr.Update("default", notifier)

	// Both alert routes fall back to the configured default.
	if got := mgr.resolve("audit"); got != Notifier(notifier) {
		t.Error("expected the audit route to resolve to the email notifier")
	}
	if got := mgr.resolve("engine"); got != Notifier(notifier) {
		t.Error("expected the engine route to resolve to the email notifier")
	}
}

func TestAlertsWithoutNotifierAreDropped(t *testing.T) {
	mgr := NewManager(NewRouter("", nil))

	// Must not panic or block with nothing configured.
	mgr.ReportCorruption(context.Background(), errors.New("binding index corrupted"))
}
