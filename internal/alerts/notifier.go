package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/mail"
)

type Notifier interface {
	SendAlert(
		ctx context.Context,
		msg AlertMessage,
	) error
}

type AlertMessage struct {
	Component  string
	Summary    string
	Detail     string
	OccurredAt time.Time
}

type NotifyNotifier struct {
	notify *notify.Notify
}

func NewNotifier(notify *notify.Notify) *NotifyNotifier {
	return &NotifyNotifier{
		notify: notify,
	}
}

// NewEmailNotifier builds a notifier delivering alerts over SMTP to the
// given recipients.
func NewEmailNotifier(smtpAddr, sender string, recipients []string) *NotifyNotifier {
	n := notify.New()

	svc := mail.New(sender, smtpAddr)
	svc.AddReceivers(recipients...)
	n.UseServices(svc)

	return NewNotifier(n)
}

func (n *NotifyNotifier) SendAlert(
	ctx context.Context,
	msg AlertMessage,
) error {

	body := fmt.Sprintf(
		"authgate operational alert\n\n"+
			"Component: %s\n"+
			"Detail: %s\n"+
			"Occurred: %s\n",
		msg.Component,
		msg.Detail,
		msg.OccurredAt.Format(time.RFC3339),
	)

	return n.notify.Send(
		ctx,
		msg.Summary,
		body,
	)
}
