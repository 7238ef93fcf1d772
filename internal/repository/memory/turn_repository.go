package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ViewerState is the last grounding pushed to a session's PDF viewer:
// the page it should display and the sentences it should highlight.
type ViewerState struct {
	SessionId   string
	CurrentPage int
	Highlights  []string
	UpdatedAt   time.Time
}

// TurnRepository tracks per-session conversational state that never
// touches Postgres: the in-flight turn guard and the viewer state.
type TurnRepository struct {
	busy   *cache.Cache
	viewer *cache.Cache
}

func NewTurnRepository() *TurnRepository {
	// Busy markers expire on their own so a crashed stream cannot
	// wedge a session forever. Viewer state lives as long as a
	// typical study session.
	return &TurnRepository{
		busy:   cache.New(5*time.Minute, 1*time.Minute),
		viewer: cache.New(2*time.Hour, 10*time.Minute),
	}
}

// TryBeginTurn marks the session busy. It returns false if a turn is
// already streaming for this session.
func (r *TurnRepository) TryBeginTurn(sessionId string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	return r.busy.Add(sessionId, time.Now(), ttl) == nil
}

func (r *TurnRepository) EndTurn(sessionId string) {
	r.busy.Delete(sessionId)
}

func (r *TurnRepository) IsBusy(sessionId string) bool {
	_, found := r.busy.Get(sessionId)
	return found
}

func (r *TurnRepository) SaveViewerState(state *ViewerState) {
	state.UpdatedAt = time.Now()
	r.viewer.Set(state.SessionId, state, cache.DefaultExpiration)
}

func (r *TurnRepository) GetViewerState(sessionId string) (*ViewerState, bool) {
	if x, found := r.viewer.Get(sessionId); found {
		return x.(*ViewerState), true
	}
	return nil, false
}

func (r *TurnRepository) DeleteViewerState(sessionId string) {
	r.viewer.Delete(sessionId)
}
