package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/MrWong99/netscout/internal/orchestrator"
	"github.com/MrWong99/netscout/internal/registry"
	"github.com/MrWong99/netscout/pkg/provider/llm/mock"
	"github.com/MrWong99/netscout/pkg/types"
)

// newTestManager builds a manager whose orchestrator replies with canned
// text.
func newTestManager(t *testing.T, maxSessions int, responses ...string) *Manager {
	t.Helper()
	if len(responses) == 0 {
		responses = []string{"hello"}
	}
	orch, err := orchestrator.New(orchestrator.Config{
		Provider: mock.New(responses...),
		Registry: registry.New(),
	})
	if err != nil {
		t.Fatalf("orchestrator.New: %v", err)
	}
	m := NewManager(ManagerConfig{Orchestrator: orch, MaxSessions: maxSessions})
	t.Cleanup(m.Shutdown)
	return m
}

func TestGetOrCreate(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, 5)

	s1 := m.GetOrCreate("")
	if s1 == nil || s1.ID == "" {
		t.Fatal("no session created")
	}
	s2 := m.GetOrCreate(s1.ID)
	if s2.ID != s1.ID {
		t.Errorf("existing id created a new session: %s != %s", s2.ID, s1.ID)
	}
	s3 := m.GetOrCreate("unknown-id")
	if s3.ID == s1.ID {
		t.Error("unknown id returned an existing session")
	}
	if m.Count() != 2 {
		t.Errorf("count = %d, want 2", m.Count())
	}
}

func TestLRUEviction(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, 3)

	first := m.Create()
	time.Sleep(2 * time.Millisecond)
	m.Create()
	time.Sleep(2 * time.Millisecond)
	third := m.Create()

	// Touch the first so the second is oldest; then overflow.
	m.GetOrCreate(first.ID)
	time.Sleep(2 * time.Millisecond)
	m.Create()

	if m.Count() != 3 {
		t.Fatalf("count = %d, want capacity 3", m.Count())
	}
	if _, ok := m.Get(first.ID); !ok {
		t.Error("recently touched session was evicted")
	}
	if _, ok := m.Get(third.ID); !ok {
		t.Error("recent session was evicted")
	}
}

func TestProcessMessageUpdatesHistory(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, 2, "reply one", "reply two")
	s := m.Create()

	resp, err := s.ProcessMessage(context.Background(), "hi", true, 5*time.Second)
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if resp.Content != "reply one" {
		t.Errorf("content = %q", resp.Content)
	}
	if got := len(s.History()); got != 2 {
		t.Errorf("history = %d turns, want user + assistant", got)
	}

	if _, err := s.ProcessMessage(context.Background(), "again", false, 5*time.Second); err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if got := len(s.History()); got != 4 {
		t.Errorf("history after second turn = %d, want 4", got)
	}
}

func TestTrimHistoryKeepsLeadingSystem(t *testing.T) {
	t.Parallel()

	history := []types.Message{
		{Role: "system", Content: "prompt one"},
		{Role: "system", Content: "prompt two"},
	}
	for i := 0; i < 30; i++ {
		history = append(history, types.Message{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}

	trimmed := trimHistory(history)
	if len(trimmed) != maxHistoryTurns {
		t.Fatalf("trimmed length = %d, want %d", len(trimmed), maxHistoryTurns)
	}
	if trimmed[0].Content != "prompt one" || trimmed[1].Content != "prompt two" {
		t.Error("leading system prompts not preserved")
	}
	if trimmed[len(trimmed)-1].Content != "turn 29" {
		t.Errorf("most recent turn dropped, tail = %q", trimmed[len(trimmed)-1].Content)
	}
}

func TestTrimHistoryNoopUnderLimit(t *testing.T) {
	t.Parallel()
	history := []types.Message{{Role: "user", Content: "only"}}
	if got := trimHistory(history); len(got) != 1 {
		t.Errorf("short history modified: %d", len(got))
	}
}

func TestShutdownStopsEverything(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, 2)
	m.Create()
	m.Shutdown()
	if m.Count() != 0 {
		t.Errorf("sessions survived shutdown: %d", m.Count())
	}
	// Shutdown is idempotent.
	m.Shutdown()
}
