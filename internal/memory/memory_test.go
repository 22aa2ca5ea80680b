package memory

import (
	"context"
	"testing"

	"github.com/harunnryd/hibiki/internal/store"

	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) RouteEmbedding(ctx context.Context, model string, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func newTestManager(t *testing.T, embedder Embedder) *Manager {
	t.Helper()
	s, err := store.NewUnlocked(t.TempDir())
	require.NoError(t, err)
	m, err := NewManager(t.TempDir(), s.Memory(), embedder, nil)
	require.NoError(t, err)
	return m
}

func TestLearnExtractsName(t *testing.T) {
	m := newTestManager(t, nil)

	m.Learn(context.Background(), "my name is Tony by the way")

	data, err := m.profile.Load()
	require.NoError(t, err)
	require.Equal(t, "Tony", data.UserInfo["name"])
}

func TestLearnIgnoresLowercaseNameCandidates(t *testing.T) {
	m := newTestManager(t, nil)

	m.Learn(context.Background(), "i am tired today")

	data, err := m.profile.Load()
	require.NoError(t, err)
	require.Empty(t, data.UserInfo["name"])
}

func TestLearnStoresPreferencesAsFacts(t *testing.T) {
	m := newTestManager(t, nil)

	m.Learn(context.Background(), "I like lofi beats while working")
	m.Learn(context.Background(), "i like lofi beats while working")

	facts, err := m.profile.RecentFacts(10)
	require.NoError(t, err)
	require.Len(t, facts, 1)
}

func TestRecallRanksBySimilarity(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"I like jazz":          {1, 0, 0},
		"I love hiking":        {0, 1, 0},
		"what music do i like": {0.9, 0.1, 0},
	}}
	m := newTestManager(t, embedder)

	m.Learn(context.Background(), "I like jazz")
	m.Learn(context.Background(), "I love hiking")

	results, err := m.Recall(context.Background(), "what music do i like", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "I like jazz", results[0].Content)
}

func TestRecallWithoutFacts(t *testing.T) {
	m := newTestManager(t, &fakeEmbedder{})

	results, err := m.Recall(context.Background(), "anything", 3)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestContextBlock(t *testing.T) {
	m := newTestManager(t, nil)
	require.Empty(t, m.ContextBlock())

	m.Learn(context.Background(), "my name is Pepper")
	m.Learn(context.Background(), "I prefer tea over coffee")

	block := m.ContextBlock()
	require.Contains(t, block, "name=Pepper")
	require.Contains(t, block, "I prefer tea over coffee")
}
