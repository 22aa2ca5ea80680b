package store

import (
	"strings"
	"sync"
	"time"
)

// MemoryData is the assistant's long-lived knowledge about the user.
type MemoryData struct {
	UserInfo    map[string]string `json:"user_info"`
	Preferences map[string]string `json:"preferences"`
	Facts       []string          `json:"facts"`
	LastUpdated string            `json:"last_updated,omitempty"`
}

type MemoryStore struct {
	store *Store
	path  string

	mu sync.Mutex
}

func (ms *MemoryStore) Load() (MemoryData, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.load()
}

func (ms *MemoryStore) load() (MemoryData, error) {
	data := MemoryData{}
	if err := ms.store.readJSON(ms.path, &data); err != nil {
		return MemoryData{}, err
	}
	if data.UserInfo == nil {
		data.UserInfo = make(map[string]string)
	}
	if data.Preferences == nil {
		data.Preferences = make(map[string]string)
	}
	return data, nil
}

func (ms *MemoryStore) save(data MemoryData) error {
	data.LastUpdated = ms.store.now().Format(time.RFC3339)
	return ms.store.writeJSON(ms.path, data)
}

func (ms *MemoryStore) SetUserInfo(key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	data, err := ms.load()
	if err != nil {
		return err
	}
	data.UserInfo[key] = value
	return ms.save(data)
}

func (ms *MemoryStore) SetPreference(key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	data, err := ms.load()
	if err != nil {
		return err
	}
	data.Preferences[key] = value
	return ms.save(data)
}

// AddFact appends a fact unless an identical one is already recorded. The
// returned bool reports whether the fact was new.
func (ms *MemoryStore) AddFact(fact string) (bool, error) {
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return false, nil
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	data, err := ms.load()
	if err != nil {
		return false, err
	}
	for _, existing := range data.Facts {
		if strings.EqualFold(existing, fact) {
			return false, nil
		}
	}
	data.Facts = append(data.Facts, fact)
	return true, ms.save(data)
}

// RecentFacts returns up to n of the most recently learned facts, oldest
// first.
func (ms *MemoryStore) RecentFacts(n int) ([]string, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	data, err := ms.load()
	if err != nil {
		return nil, err
	}
	if n <= 0 || len(data.Facts) <= n {
		return data.Facts, nil
	}
	return data.Facts[len(data.Facts)-n:], nil
}
