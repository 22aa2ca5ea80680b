// Package memory maintains what the assistant knows about the user: a small
// structured profile plus a vector index over learned facts for semantic
// recall.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harunnryd/hibiki/internal/store"

	"github.com/oklog/ulid/v2"
	chromem "github.com/philippgille/chromem-go"
)

const factCollection = "facts"

// Embedder produces an embedding vector for a piece of text. The empty model
// name lets the router pick its configured embedding model.
type Embedder interface {
	RouteEmbedding(ctx context.Context, model string, text string) ([]float32, error)
}

type Recalled struct {
	Content    string
	Similarity float32
}

type Manager struct {
	profile  *store.MemoryStore
	vectorDB *chromem.DB
	embedder Embedder
	log      *slog.Logger
}

func NewManager(basePath string, profile *store.MemoryStore, embedder Embedder, log *slog.Logger) (*Manager, error) {
	vectorPath := filepath.Join(basePath, "vectors")
	if err := os.MkdirAll(vectorPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vector dir: %w", err)
	}
	// Embeddings come from the model router, so no embedding func here.
	vectorDB, err := chromem.NewPersistentDB(vectorPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to init vector db: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		profile:  profile,
		vectorDB: vectorDB,
		embedder: embedder,
		log:      log,
	}, nil
}

// Learn scans a command for self-describing statements and stores what it
// finds. Name statements update the profile; preference statements become
// facts and are indexed for recall. Failures are logged and swallowed so a
// memory hiccup never blocks a command.
func (m *Manager) Learn(ctx context.Context, command string) {
	lowered := strings.ToLower(command)

	if strings.Contains(lowered, "my name is") || strings.Contains(lowered, "i'm") || strings.Contains(lowered, "i am") {
		if name := extractName(command); name != "" {
			if err := m.profile.SetUserInfo("name", name); err != nil {
				m.log.Warn("Failed to store user name", "error", err)
			}
		}
	}

	if strings.Contains(lowered, "i like") || strings.Contains(lowered, "i prefer") || strings.Contains(lowered, "i love") {
		added, err := m.profile.AddFact(command)
		if err != nil {
			m.log.Warn("Failed to store fact", "error", err)
			return
		}
		if added {
			m.indexFact(ctx, command)
		}
	}
}

func (m *Manager) indexFact(ctx context.Context, fact string) {
	if m.embedder == nil {
		return
	}
	vector, err := m.embedder.RouteEmbedding(ctx, "", fact)
	if err != nil {
		m.log.Debug("Skipping fact indexing, embedding unavailable", "error", err)
		return
	}
	col, err := m.vectorDB.GetOrCreateCollection(factCollection, nil, nil)
	if err != nil {
		m.log.Warn("Failed to open fact collection", "error", err)
		return
	}
	err = col.AddDocuments(ctx, []chromem.Document{
		{
			ID:        ulid.Make().String(),
			Embedding: vector,
			Content:   fact,
		},
	}, 1)
	if err != nil {
		m.log.Warn("Failed to index fact", "error", err)
	}
}

// Recall returns the facts most similar to the query, best first.
func (m *Manager) Recall(ctx context.Context, query string, limit int) ([]Recalled, error) {
	if m.embedder == nil {
		return nil, nil
	}
	col := m.vectorDB.GetCollection(factCollection, nil)
	if col == nil {
		return nil, nil
	}
	if count := col.Count(); count < limit {
		limit = count
	}
	if limit <= 0 {
		return nil, nil
	}

	vector, err := m.embedder.RouteEmbedding(ctx, "", query)
	if err != nil {
		return nil, err
	}
	docs, err := col.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		return nil, err
	}

	results := make([]Recalled, 0, len(docs))
	for _, doc := range docs {
		results = append(results, Recalled{Content: doc.Content, Similarity: doc.Similarity})
	}
	return results, nil
}

// ContextBlock renders the profile as prompt context. Empty when nothing is
// known yet.
func (m *Manager) ContextBlock() string {
	data, err := m.profile.Load()
	if err != nil {
		m.log.Warn("Failed to load memory profile", "error", err)
		return ""
	}

	var parts []string
	if len(data.UserInfo) > 0 {
		parts = append(parts, "User info: "+formatPairs(data.UserInfo))
	}
	if len(data.Preferences) > 0 {
		parts = append(parts, "Preferences: "+formatPairs(data.Preferences))
	}
	if facts, err := m.profile.RecentFacts(5); err == nil && len(facts) > 0 {
		parts = append(parts, "Recent facts: "+strings.Join(facts, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "What I remember about the user:\n" + strings.Join(parts, "\n")
}

func extractName(command string) string {
	words := strings.Fields(command)
	for i, word := range words {
		switch strings.ToLower(word) {
		case "is", "i'm", "am":
			if i+1 < len(words) {
				candidate := strings.Trim(words[i+1], ".,!?")
				if candidate != "" && isUpperStart(candidate) {
					return candidate
				}
			}
		}
	}
	return ""
}

func isUpperStart(s string) bool {
	r := []rune(s)[0]
	return r >= 'A' && r <= 'Z'
}

func formatPairs(pairs map[string]string) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	// Deterministic ordering keeps the prompt stable between calls.
	sort.Strings(keys)

	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, fmt.Sprintf("%s=%s", k, pairs[k]))
	}
	return strings.Join(entries, ", ")
}
