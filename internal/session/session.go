package session

import "time"

// Session is the per-source conversation lane: its own history, duplicate
// guards and confirmation rotation counter. Voice, console and each relay
// chat get independent lanes so traffic on one never suppresses another.
type Session struct {
	ID             string
	Source         string
	History        *History
	DetectionGuard *Guard
	DispatchGuard  *Guard
	ConfirmCount   int
	StartedAt      time.Time
}

type Config struct {
	HistoryLimit      int
	DetectionGuardGap time.Duration
	DispatchGuardGap  time.Duration
}

// Manager hands out session lanes keyed by source and session ID. It is
// called only from the dispatch loop.
type Manager struct {
	cfg   Config
	lanes map[string]*Session
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:   cfg,
		lanes: make(map[string]*Session),
	}
}

// Get returns the lane for (source, id), creating it on first use.
func (m *Manager) Get(source, id string) *Session {
	key := source + ":" + id
	if s, ok := m.lanes[key]; ok {
		return s
	}

	s := &Session{
		ID:             id,
		Source:         source,
		History:        NewHistory(m.cfg.HistoryLimit),
		DetectionGuard: NewGuard(m.cfg.DetectionGuardGap),
		DispatchGuard:  NewGuard(m.cfg.DispatchGuardGap),
		StartedAt:      time.Now(),
	}
	m.lanes[key] = s
	return s
}

// Sessions returns all active lanes.
func (m *Manager) Sessions() []*Session {
	out := make([]*Session, 0, len(m.lanes))
	for _, s := range m.lanes {
		out = append(out, s)
	}
	return out
}
