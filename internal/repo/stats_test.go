package repo

import (
	"context"
	"testing"
	"time"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/domain"
)

func TestScheduledStats_CountsAllStatesIncludingCancelled(t *testing.T) {
	db := newMessageRepoDB(t, &domain.ScheduledMessage{})

	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	seed := []domain.ScheduledMessage{
		{ID: "p1", UserID: "u1", Channel: "C1", Message: "x", Status: domain.StatusPending, ScheduledAt: base},
		{ID: "p2", UserID: "u1", Channel: "C1", Message: "x", Status: domain.StatusPending, ScheduledAt: base},
		{ID: "s1", UserID: "u1", Channel: "C1", Message: "x", Status: domain.StatusSent, ScheduledAt: base},
		{ID: "f1", UserID: "u1", Channel: "C1", Message: "x", Status: domain.StatusFailed, ScheduledAt: base},
		{ID: "c1", UserID: "u1", Channel: "C1", Message: "x", Status: domain.StatusPending, ScheduledAt: base},
		{ID: "zz", UserID: "u2", Channel: "C1", Message: "x", Status: domain.StatusSent, ScheduledAt: base},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed %s: %v", seed[i].ID, err)
		}
	}
	// Cancel one of u1's rows so it becomes soft-deleted.
	if err := CancelScheduledMessage(context.Background(), db, "c1", "u1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	s, err := ScheduledStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ScheduledStats: %v", err)
	}
	if s.Total != 5 {
		t.Fatalf("expected total 5, got %d", s.Total)
	}
	if s.Pending != 2 || s.Sent != 1 || s.Failed != 1 || s.Cancelled != 1 {
		t.Fatalf("unexpected breakdown: %+v", s)
	}
}

func TestScheduledStats_EmptyUser(t *testing.T) {
	db := newMessageRepoDB(t, &domain.ScheduledMessage{})

	s, err := ScheduledStats(context.Background(), db, "nobody")
	if err != nil {
		t.Fatalf("ScheduledStats: %v", err)
	}
	if s.Total != 0 || s.Pending != 0 || s.Sent != 0 || s.Failed != 0 || s.Cancelled != 0 {
		t.Fatalf("expected zero stats, got %+v", s)
	}
}
