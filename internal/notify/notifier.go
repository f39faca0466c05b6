package notify

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"netwatch/internal/models"
)

// Mailer delivers one notification message. Implementations may fail;
// the notifier owns the retry budget.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// Options tunes notifier behavior.
type Options struct {
	// Retries is the number of re-attempts after a failed send.
	Retries int
	// Backoff computes the pause between attempts; defaults to no pause.
	Backoff BackoffFunc
	// NotifyOnDown gates the outage-start mail. Recovery mails are
	// always sent.
	NotifyOnDown bool
	// Location formats timestamps in messages; defaults to time.Local.
	Location *time.Location
	// Clock is used for backoff pauses; defaults to the real clock.
	Clock clock.Clock
	// Context is static monitor information included in every message.
	Context MessageContext
}

// MessageContext carries the monitor settings quoted in message bodies.
type MessageContext struct {
	PublicTargets []string
	WANHost       string
	FailThreshold int
	OKThreshold   int
	Interval      time.Duration
}

// Notifier turns transition events into e-mail notifications. It
// deduplicates against the last announced state and never blocks the
// monitoring loop beyond its bounded retry budget. A nil mailer
// disables delivery but keeps the dedup bookkeeping intact.
type Notifier struct {
	mailer Mailer
	log    *zap.Logger
	opts   Options

	// single-writer within the sequential monitor loop
	last        models.NetworkState
	outageStart time.Time
	outageKind  models.NetworkState
}

// New builds a notifier. log must not be nil in production; a nil log
// is replaced with a no-op logger.
func New(mailer Mailer, log *zap.Logger, opts Options) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Backoff == nil {
		opts.Backoff = ConstantBackoff(0)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Notifier{mailer: mailer, log: log, opts: opts}
}

// LastAnnounced returns the state of the most recent completed announce
// attempt, or "" before the first one.
func (n *Notifier) LastAnnounced() models.NetworkState {
	return n.last
}

// Announce handles one transition event. Send failures are retried a
// bounded number of times, then logged and dropped; the record is
// updated either way so a dead mail path does not retry on every
// subsequent round, only on the next genuine transition.
func (n *Notifier) Announce(ctx context.Context, event models.Transition) {
	if event.To == n.last {
		n.log.Debug("duplicate transition suppressed", zap.String("state", string(event.To)))
		return
	}

	if event.To.Down() {
		n.outageStart = event.Timestamp
		n.outageKind = event.To
	}

	switch {
	case n.mailer == nil:
		n.log.Warn("no mail recipients configured, skipping notification",
			zap.String("state", string(event.To)))
	case event.To.Down() && !n.opts.NotifyOnDown:
		n.log.Info("outage-start notification disabled",
			zap.String("state", string(event.To)))
	default:
		n.deliver(ctx, event)
	}

	if event.To == models.StateOK {
		n.outageStart = time.Time{}
		n.outageKind = ""
	}
	n.last = event.To
}

func (n *Notifier) deliver(ctx context.Context, event models.Transition) {
	subject, body := n.compose(event)

	err := Retry(ctx, n.opts.Clock, n.opts.Retries, n.opts.Backoff, func(ctx context.Context) error {
		return n.mailer.Send(ctx, subject, body)
	})
	if err != nil {
		n.log.Error("notification delivery failed",
			zap.String("subject", subject),
			zap.Int("attempts", n.opts.Retries+1),
			zap.Error(err))
		return
	}
	n.log.Info("notification sent", zap.String("subject", subject))
}
