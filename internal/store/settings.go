package store

import "sync"

// Settings holds small user-adjustable runtime state that survives restarts.
type Settings struct {
	VoiceCode string `json:"voice_code,omitempty"`
}

type SettingsStore struct {
	store *Store
	path  string

	mu sync.Mutex
}

func (ss *SettingsStore) Load() (Settings, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	var settings Settings
	if err := ss.store.readJSON(ss.path, &settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (ss *SettingsStore) SetVoiceCode(code string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	var settings Settings
	if err := ss.store.readJSON(ss.path, &settings); err != nil {
		return err
	}
	settings.VoiceCode = code
	return ss.store.writeJSON(ss.path, settings)
}
