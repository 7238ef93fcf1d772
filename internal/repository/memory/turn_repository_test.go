package memory

import (
	"testing"
	"time"
)

func TestTryBeginTurnGuardsConcurrentTurns(t *testing.T) {
	repo := NewTurnRepository()

	if !repo.TryBeginTurn("session-a", time.Minute) {
		t.Fatal("first TryBeginTurn should succeed")
	}
	if repo.TryBeginTurn("session-a", time.Minute) {
		t.Fatal("second TryBeginTurn on a busy session should fail")
	}
	if !repo.TryBeginTurn("session-b", time.Minute) {
		t.Fatal("an unrelated session should not be blocked")
	}

	repo.EndTurn("session-a")
	if !repo.TryBeginTurn("session-a", time.Minute) {
		t.Fatal("TryBeginTurn should succeed after EndTurn")
	}
}

func TestBusyMarkerExpires(t *testing.T) {
	repo := NewTurnRepository()

	if !repo.TryBeginTurn("session-a", 20*time.Millisecond) {
		t.Fatal("first TryBeginTurn should succeed")
	}
	time.Sleep(50 * time.Millisecond)

	// A crashed stream never calls EndTurn; the TTL must free the session.
	if !repo.TryBeginTurn("session-a", time.Minute) {
		t.Fatal("TryBeginTurn should succeed after the marker expired")
	}
}

func TestViewerStateRoundTrip(t *testing.T) {
	repo := NewTurnRepository()

	if _, found := repo.GetViewerState("session-a"); found {
		t.Fatal("viewer state should be absent before any turn")
	}

	repo.SaveViewerState(&ViewerState{
		SessionId:   "session-a",
		CurrentPage: 12,
		Highlights:  []string{"Mitochondria are the powerhouse of the cell."},
	})

	state, found := repo.GetViewerState("session-a")
	if !found {
		t.Fatal("viewer state should be present after save")
	}
	if state.CurrentPage != 12 {
		t.Errorf("CurrentPage = %d, want 12", state.CurrentPage)
	}
	if len(state.Highlights) != 1 {
		t.Errorf("Highlights length = %d, want 1", len(state.Highlights))
	}
	if state.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be stamped on save")
	}

	repo.DeleteViewerState("session-a")
	if _, found := repo.GetViewerState("session-a"); found {
		t.Fatal("viewer state should be gone after delete")
	}
}
