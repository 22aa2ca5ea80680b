package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHistory_EvictsOldestBeyondLimit(t *testing.T) {
	h := NewHistory(3)
	for _, u := range []string{"a", "b", "c", "d"} {
		h.Append(Turn{User: u})
	}

	require.Equal(t, 3, h.Len())
	all := h.All()
	require.Equal(t, "b", all[0].User)
	require.Equal(t, "d", all[2].User)
}

func TestHistory_RecentWindow(t *testing.T) {
	h := NewHistory(8)
	for _, u := range []string{"a", "b", "c", "d", "e"} {
		h.Append(Turn{User: u})
	}

	recent := h.Recent(3)
	require.Len(t, recent, 3)
	require.Equal(t, "c", recent[0].User)
	require.Equal(t, "e", recent[2].User)

	require.Len(t, h.Recent(10), 5)
	require.Nil(t, h.Recent(0))
}

func TestGuard_SuppressesWithinWindow(t *testing.T) {
	g := NewGuard(2200 * time.Millisecond)
	now := time.Now()
	g.now = func() time.Time { return now }

	key := Normalize("Open Spotify")
	require.False(t, g.ShouldSuppress(key))
	g.Record(key)

	now = now.Add(1 * time.Second)
	require.True(t, g.ShouldSuppress(key))

	now = now.Add(2 * time.Second)
	require.False(t, g.ShouldSuppress(key))
}

func TestGuard_SuppressedRepeatDoesNotExtendWindow(t *testing.T) {
	g := NewGuard(800 * time.Millisecond)
	now := time.Now()
	g.now = func() time.Time { return now }

	key := DispatchKey("open spotify", "rec-001")
	g.Record(key)

	// A suppressed repeat must not refresh the window.
	now = now.Add(500 * time.Millisecond)
	require.True(t, g.ShouldSuppress(key))

	now = now.Add(400 * time.Millisecond)
	require.False(t, g.ShouldSuppress(key))
}

func TestGuard_DifferentKeyPasses(t *testing.T) {
	g := NewGuard(time.Second)
	g.Record(Normalize("open spotify"))
	require.False(t, g.ShouldSuppress(Normalize("close spotify")))
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "open spotify", Normalize("  Open   SPOTIFY! "))
	require.Equal(t, "what time is it", Normalize("What time is it?"))
}

func TestDispatchKey_IncludesSource(t *testing.T) {
	require.NotEqual(t, DispatchKey("open spotify", "rec-1"), DispatchKey("open spotify", "rec-2"))
}

func TestManager_LanesAreIndependent(t *testing.T) {
	m := NewManager(Config{HistoryLimit: 8, DetectionGuardGap: time.Second, DispatchGuardGap: time.Second})

	voice := m.Get("voice", "local")
	tg := m.Get("telegram", "12345")
	require.NotSame(t, voice, tg)

	voice.DetectionGuard.Record("hello")
	require.False(t, tg.DetectionGuard.ShouldSuppress("hello"))

	require.Same(t, voice, m.Get("voice", "local"))
	require.Len(t, m.Sessions(), 2)
}
