package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/domain"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/repo"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/slackapi"
)

func newDispatcherDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("dispatcher_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.User{}, &domain.ScheduledMessage{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fakeGateway records sends and fails on demand per channel.
type fakeGateway struct {
	mu       sync.Mutex
	sent     []string // texts in delivery order
	failFor  map[string]error
	receipts int
}

func (f *fakeGateway) SendNow(_ context.Context, _, channel, text string) (*slackapi.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[channel]; ok {
		return nil, err
	}
	f.sent = append(f.sent, text)
	f.receipts++
	return &slackapi.Receipt{Channel: channel, MessageID: fmt.Sprintf("ts-%d", f.receipts)}, nil
}

func seedUser(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()
	u, err := repo.UpsertUserBySlackID(context.Background(), db, "U1", "T1", "xoxp-tok", nil, nil)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedMessage(t *testing.T, db *gorm.DB, userID, channel string, at time.Time) *domain.ScheduledMessage {
	t.Helper()
	m, err := repo.CreateScheduledMessage(context.Background(), db, userID, channel, "msg for "+channel, at)
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return m
}

func TestRunCycle_DeliversDueAndStoresReceipt(t *testing.T) {
	db := newDispatcherDB(t)
	u := seedUser(t, db)
	m := seedMessage(t, db, u.ID, "C1", time.Now().Add(-time.Minute))

	gw := &fakeGateway{}
	d := &Dispatcher{DB: db, Gateway: gw, Logger: zerolog.Nop()}

	sent, failed := d.RunCycle(context.Background())
	if sent != 1 || failed != 0 {
		t.Fatalf("expected 1 sent / 0 failed, got %d / %d", sent, failed)
	}

	var got domain.ScheduledMessage
	if err := db.First(&got, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.StatusSent {
		t.Fatalf("expected sent, got %q", got.Status)
	}
	if got.SlackMessageID == nil || *got.SlackMessageID == "" {
		t.Fatalf("receipt not stored: %+v", got)
	}
}

func TestRunCycle_GatewayFailureMarksFailedWithoutReceipt(t *testing.T) {
	db := newDispatcherDB(t)
	u := seedUser(t, db)
	m := seedMessage(t, db, u.ID, "CBAD", time.Now().Add(-time.Minute))

	gw := &fakeGateway{failFor: map[string]error{"CBAD": errors.New("channel_not_found")}}
	d := &Dispatcher{DB: db, Gateway: gw, Logger: zerolog.Nop()}

	sent, failed := d.RunCycle(context.Background())
	if sent != 0 || failed != 1 {
		t.Fatalf("expected 0 sent / 1 failed, got %d / %d", sent, failed)
	}

	var got domain.ScheduledMessage
	if err := db.First(&got, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %q", got.Status)
	}
	if got.SlackMessageID != nil {
		t.Fatalf("failed row must not carry a receipt: %+v", got)
	}
}

func TestRunCycle_FailureIsolatedPerRecord(t *testing.T) {
	db := newDispatcherDB(t)
	u := seedUser(t, db)

	// First due record fails, the later one must still go out.
	bad := seedMessage(t, db, u.ID, "CBAD", time.Now().Add(-2*time.Minute))
	good := seedMessage(t, db, u.ID, "C1", time.Now().Add(-time.Minute))

	gw := &fakeGateway{failFor: map[string]error{"CBAD": errors.New("not_in_channel")}}
	d := &Dispatcher{DB: db, Gateway: gw, Logger: zerolog.Nop()}

	sent, failed := d.RunCycle(context.Background())
	if sent != 1 || failed != 1 {
		t.Fatalf("expected 1 sent / 1 failed, got %d / %d", sent, failed)
	}

	var gotBad, gotGood domain.ScheduledMessage
	if err := db.First(&gotBad, "id = ?", bad.ID).Error; err != nil {
		t.Fatalf("reload bad: %v", err)
	}
	if err := db.First(&gotGood, "id = ?", good.ID).Error; err != nil {
		t.Fatalf("reload good: %v", err)
	}
	if gotBad.Status != domain.StatusFailed || gotGood.Status != domain.StatusSent {
		t.Fatalf("isolation broken: bad=%q good=%q", gotBad.Status, gotGood.Status)
	}
}

func TestRunCycle_SkipsFutureAndCancelled(t *testing.T) {
	db := newDispatcherDB(t)
	u := seedUser(t, db)

	future := seedMessage(t, db, u.ID, "C1", time.Now().Add(time.Hour))
	cancelled := seedMessage(t, db, u.ID, "C1", time.Now().Add(-time.Minute))
	if err := repo.CancelScheduledMessage(context.Background(), db, cancelled.ID, u.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	gw := &fakeGateway{}
	d := &Dispatcher{DB: db, Gateway: gw, Logger: zerolog.Nop()}

	sent, failed := d.RunCycle(context.Background())
	if sent != 0 || failed != 0 {
		t.Fatalf("expected idle cycle, got %d sent / %d failed", sent, failed)
	}
	if len(gw.sent) != 0 {
		t.Fatalf("gateway should not have been called: %v", gw.sent)
	}

	var got domain.ScheduledMessage
	if err := db.First(&got, "id = ?", future.ID).Error; err != nil {
		t.Fatalf("reload future: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("future row must stay pending, got %q", got.Status)
	}
}

func TestRunCycle_MissingCredentialMarksFailed(t *testing.T) {
	db := newDispatcherDB(t)

	// Owner row never created: dispatch cannot resolve a token.
	m := seedMessage(t, db, "ghost-user", "C1", time.Now().Add(-time.Minute))

	gw := &fakeGateway{}
	d := &Dispatcher{DB: db, Gateway: gw, Logger: zerolog.Nop()}

	sent, failed := d.RunCycle(context.Background())
	if sent != 0 || failed != 1 {
		t.Fatalf("expected 0 sent / 1 failed, got %d / %d", sent, failed)
	}
	if len(gw.sent) != 0 {
		t.Fatalf("gateway should not have been called without a credential")
	}

	var got domain.ScheduledMessage
	if err := db.First(&got, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %q", got.Status)
	}
}

func TestRunCycle_DeliveryFollowsScheduleOrder(t *testing.T) {
	db := newDispatcherDB(t)
	u := seedUser(t, db)

	base := time.Now().Add(-time.Hour)
	// Insert out of order; delivery must follow scheduled_at.
	seedMessageAt := func(id string, at time.Time) {
		m := domain.ScheduledMessage{
			ID: id, UserID: u.ID, Channel: "C1", Message: id,
			Status: domain.StatusPending, ScheduledAt: at,
		}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	seedMessageAt("third", base.Add(3*time.Minute))
	seedMessageAt("first", base.Add(1*time.Minute))
	seedMessageAt("second", base.Add(2*time.Minute))

	gw := &fakeGateway{}
	d := &Dispatcher{DB: db, Gateway: gw, Logger: zerolog.Nop()}

	if sent, _ := d.RunCycle(context.Background()); sent != 3 {
		t.Fatalf("expected 3 sent, got %d", sent)
	}
	if len(gw.sent) != 3 || gw.sent[0] != "first" || gw.sent[1] != "second" || gw.sent[2] != "third" {
		t.Fatalf("unexpected delivery order: %v", gw.sent)
	}
}

func TestRunCycle_SecondCycleIsIdle(t *testing.T) {
	db := newDispatcherDB(t)
	u := seedUser(t, db)
	seedMessage(t, db, u.ID, "C1", time.Now().Add(-time.Minute))

	gw := &fakeGateway{}
	d := &Dispatcher{DB: db, Gateway: gw, Logger: zerolog.Nop()}

	if sent, _ := d.RunCycle(context.Background()); sent != 1 {
		t.Fatalf("first cycle should deliver")
	}
	// The sent row must never be attempted again.
	if sent, failed := d.RunCycle(context.Background()); sent != 0 || failed != 0 {
		t.Fatalf("second cycle should be idle, got %d / %d", sent, failed)
	}
	if len(gw.sent) != 1 {
		t.Fatalf("duplicate delivery: %v", gw.sent)
	}
}

func TestStartStop_Lifecycle(t *testing.T) {
	db := newDispatcherDB(t)

	d := &Dispatcher{DB: db, Gateway: &fakeGateway{}, Interval: time.Hour, Logger: zerolog.Nop()}
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(); err == nil {
		t.Fatalf("expected error on double start")
	}
	d.Stop()
	// Stop is safe to repeat.
	d.Stop()

	bad := &Dispatcher{DB: db, Gateway: &fakeGateway{}, Interval: 0, Logger: zerolog.Nop()}
	if err := bad.Start(); err == nil {
		t.Fatalf("expected error for non-positive interval")
	}
}
