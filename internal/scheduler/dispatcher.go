// Package scheduler runs the dispatch loop that delivers due scheduled
// messages. A single cron entry fires at a fixed interval; each cycle takes
// one snapshot of the due set and works through it sequentially, so upstream
// load stays bounded and delivery order follows schedule order.
//
// Cycles never overlap: the cron chain skips a tick while the previous cycle
// is still running. Failures are isolated per record: a gateway error marks
// that one message failed and the cycle moves on. There are no retries; a
// failed dispatch is terminal and visible only through the stored status.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/domain"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/repo"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/slackapi"
)

// SendGateway is the single delivery operation the dispatcher needs.
// *slackapi.Client satisfies it; tests substitute fakes.
type SendGateway interface {
	SendNow(ctx context.Context, token, channel, text string) (*slackapi.Receipt, error)
}

// Dispatcher owns the periodic scan-and-send routine.
type Dispatcher struct {
	// DB is the handle used for due queries and status writes (always
	// through the repo layer).
	DB *gorm.DB
	// Gateway delivers messages to Slack.
	Gateway SendGateway
	// Interval is the cycle period (default 60s via config).
	Interval time.Duration
	// CallTimeout bounds each gateway call so one slow upstream request
	// cannot stall the rest of the cycle indefinitely.
	CallTimeout time.Duration
	// Logger receives per-cycle and per-record events.
	Logger zerolog.Logger

	cron *cron.Cron
}

// Start registers the dispatch cycle and begins ticking. It returns an error
// if the dispatcher is already running or the interval is invalid.
func (d *Dispatcher) Start() error {
	if d.cron != nil {
		return errors.New("dispatcher already started")
	}
	if d.Interval <= 0 {
		return errors.New("dispatch interval must be > 0")
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	_, err := c.AddFunc(fmt.Sprintf("@every %s", d.Interval), func() {
		d.RunCycle(context.Background())
	})
	if err != nil {
		return err
	}
	c.Start()
	d.cron = c

	d.Logger.Info().Dur("interval", d.Interval).Msg("dispatcher started")
	return nil
}

// Stop halts the tick source and waits for an in-flight cycle to finish.
// Safe to call on a dispatcher that never started.
func (d *Dispatcher) Stop() {
	if d.cron == nil {
		return
	}
	<-d.cron.Stop().Done()
	d.cron = nil
	d.Logger.Info().Msg("dispatcher stopped")
}

// RunCycle executes one dispatch cycle: snapshot the due set, then attempt
// each record in schedule order. Exported so tests (and operators, via a
// debug hook if ever needed) can drive cycles without the timer.
//
// It returns the number of records that reached sent and failed states.
// Production callers ignore these; failures surface only through the stored
// per-record status.
func (d *Dispatcher) RunCycle(ctx context.Context) (sent, failed int) {
	start := time.Now()

	due, err := repo.FindDue(ctx, d.DB, start)
	if err != nil {
		d.Logger.Error().Err(err).Msg("due query failed; skipping cycle")
		return 0, 0
	}
	if len(due) == 0 {
		return 0, 0
	}

	for i := range due {
		if d.dispatchOne(ctx, &due[i]) {
			sent++
		} else {
			failed++
		}
	}

	d.Logger.Info().
		Int("due", len(due)).
		Int("sent", sent).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("dispatch cycle completed")
	return sent, failed
}

// dispatchOne attempts delivery of a single due message and records the
// outcome. Reports true when the message reached sent.
func (d *Dispatcher) dispatchOne(ctx context.Context, m *domain.ScheduledMessage) bool {
	lg := d.Logger.With().Str("message_id", m.ID).Str("channel", m.Channel).Logger()

	owner, err := repo.GetUser(ctx, d.DB, m.UserID)
	if err != nil {
		lg.Warn().Err(err).Msg("no credential for owner; marking failed")
		d.markFailed(ctx, m.ID, lg)
		return false
	}

	callCtx := ctx
	if d.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.CallTimeout)
		defer cancel()
	}

	receipt, err := d.Gateway.SendNow(callCtx, owner.AccessToken, m.Channel, m.Message)
	if err != nil {
		lg.Warn().Err(err).Msg("delivery failed")
		d.markFailed(ctx, m.ID, lg)
		return false
	}

	if err := repo.UpdateMessageStatus(ctx, d.DB, m.ID, domain.StatusSent, receipt.MessageID); err != nil {
		// Best effort: the message went out; a stale status row is the
		// lesser harm compared to aborting the cycle.
		lg.Error().Err(err).Msg("sent, but status write failed")
	}
	return true
}

func (d *Dispatcher) markFailed(ctx context.Context, id string, lg zerolog.Logger) {
	if err := repo.UpdateMessageStatus(ctx, d.DB, id, domain.StatusFailed, ""); err != nil {
		lg.Error().Err(err).Msg("failed-status write failed")
	}
}
