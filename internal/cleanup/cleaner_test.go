package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/casequest/coach-engine/internal/gateway"
	"github.com/casequest/coach-engine/internal/session"
)

func TestCleanerRemovesExpiredSessions(t *testing.T) {
	manager := session.NewManager(gateway.NewMock(), time.Nanosecond)
	if _, err := manager.Create(); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker runs a cycle immediately on start
	NewCleaner(manager, time.Hour).Start(ctx)

	deadline := time.After(2 * time.Second)
	for manager.Len() > 0 {
		select {
		case <-deadline:
			t.Fatal("expired session was not removed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestNewCleanerDefaultInterval(t *testing.T) {
	c := NewCleaner(session.NewManager(gateway.NewMock(), time.Hour), 0)
	if c.interval != 5*time.Minute {
		t.Errorf("expected default interval 5m, got %v", c.interval)
	}
}
