package voice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/harunnryd/hibiki/internal/store"

	"github.com/stretchr/testify/require"
)

func newTestSpeaker(t *testing.T) *Speaker {
	t.Helper()
	s, err := store.NewUnlocked(t.TempDir())
	require.NoError(t, err)
	return NewSpeaker("tts", nil, s.Settings(), nil)
}

func TestExtractVoiceCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"switch to bm_lewis", "bm_lewis"},
		{"switch to Bella", "af_bella"},
		{"use voice male british", "bm_lewis"},
		{"set voice to female 2", "af_sarah"},
		{"switch to something else", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ExtractVoiceCode(tc.in), tc.in)
	}
}

func TestHandleVoiceCommandList(t *testing.T) {
	handled, reply := HandleVoiceCommand("what voices do you have", nil)
	require.True(t, handled)
	require.Contains(t, reply, "Available voices:")
	require.Contains(t, reply, "Lewis (bm_lewis)")
}

func TestHandleVoiceCommandSwitchPersists(t *testing.T) {
	speaker := newTestSpeaker(t)

	handled, reply := HandleVoiceCommand("switch to Bella", speaker)
	require.True(t, handled)
	require.Equal(t, "Voice switched to Bella. I will use this voice from now on.", reply)
	require.Equal(t, "af_bella", speaker.Code())

	saved, err := speaker.settings.Load()
	require.NoError(t, err)
	require.Equal(t, "af_bella", saved.VoiceCode)
}

func TestHandleVoiceCommandUnknownVoice(t *testing.T) {
	speaker := newTestSpeaker(t)

	handled, reply := HandleVoiceCommand("switch to the dark side", speaker)
	require.True(t, handled)
	require.Contains(t, reply, "Please choose one of these voices.")
	require.Equal(t, DefaultVoiceCode, speaker.Code())
}

func TestHandleVoiceCommandIgnoresOtherText(t *testing.T) {
	handled, _ := HandleVoiceCommand("open spotify", nil)
	require.False(t, handled)
}

func TestNewSpeakerLoadsSavedVoice(t *testing.T) {
	s, err := store.NewUnlocked(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Settings().SetVoiceCode("am_adam"))

	speaker := NewSpeaker("tts", nil, s.Settings(), nil)
	require.Equal(t, "am_adam", speaker.Code())
}

func TestSpeakInvokesCommandInBackground(t *testing.T) {
	speaker := newTestSpeaker(t)

	var mu sync.Mutex
	var captured []string
	done := make(chan struct{})
	speaker.runCommand = func(ctx context.Context, name string, args ...string) error {
		mu.Lock()
		captured = append([]string{name}, args...)
		mu.Unlock()
		close(done)
		return nil
	}

	speaker.Speak(context.Background(), "Hello there")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("speak never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"tts", "bm_lewis", "Hello there"}, captured)
}

func TestSpeakSkipsEmptyText(t *testing.T) {
	speaker := newTestSpeaker(t)
	speaker.runCommand = func(ctx context.Context, name string, args ...string) error {
		t.Fatal("should not run")
		return nil
	}
	speaker.Speak(context.Background(), "   ")
}
