package transcript

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Utterance is a finalized transcription emitted by the source.
type Utterance struct {
	Text        string
	Dir         string
	FinalizedAt time.Time
}

type meta struct {
	Result    string `json:"result"`
	RawResult string `json:"rawResult"`
}

// Source polls a recordings directory maintained by an external
// speech-to-text engine. Each recording lives in its own subdirectory; the
// engine drops a meta file there once transcription is final. A missing,
// empty or partially written meta file means the recording is still being
// transcribed and will be retried on a later tick.
type Source struct {
	dir          string
	metaFilename string

	lastDir   string
	lastMtime time.Time
}

func NewSource(dir, metaFilename string) *Source {
	return &Source{dir: dir, metaFilename: metaFilename}
}

// Poll returns the newest finalized utterance not yet seen, if any.
func (s *Source) Poll() (Utterance, bool) {
	latest, ok := s.latestRecordingDir()
	if !ok {
		return Utterance{}, false
	}

	metaPath := filepath.Join(latest, s.metaFilename)
	info, err := os.Stat(metaPath)
	if err != nil || info.Size() == 0 {
		// Still transcribing
		return Utterance{}, false
	}

	if latest == s.lastDir && info.ModTime().Equal(s.lastMtime) {
		return Utterance{}, false
	}

	raw, err := os.ReadFile(metaPath)
	if err != nil {
		slog.Debug("Transcript meta unreadable", "path", metaPath, "error", err)
		return Utterance{}, false
	}

	var m meta
	if err := json.Unmarshal(raw, &m); err != nil {
		// Partial write, retry next tick
		return Utterance{}, false
	}

	text := strings.TrimSpace(m.Result)
	if text == "" {
		text = strings.TrimSpace(m.RawResult)
	}
	if text == "" {
		return Utterance{}, false
	}

	s.lastDir = latest
	s.lastMtime = info.ModTime()

	return Utterance{Text: text, Dir: latest, FinalizedAt: info.ModTime()}, true
}

func (s *Source) latestRecordingDir() (string, bool) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", false
	}

	type candidate struct {
		path  string
		mtime time.Time
	}

	var dirs []candidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, candidate{path: filepath.Join(s.dir, e.Name()), mtime: info.ModTime()})
	}
	if len(dirs) == 0 {
		return "", false
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mtime.After(dirs[j].mtime) })
	return dirs[0].path, true
}
