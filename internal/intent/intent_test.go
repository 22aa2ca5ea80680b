package intent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		command string
		want    Intent
	}{
		{"empty", "", Query},
		{"plain action", "open spotify", Action},
		{"imperative with object", "Close Terminal", Action},
		{"polite action", "can you open youtube", Action},
		{"polite without verb", "can you do something about it", Action},
		{"how-to question about a verb", "How do I close Terminal?", Query},
		{"bare command with question mark", "Close Terminal?", Action},
		{"question without verb", "why is the sky blue?", Query},
		{"query prefix", "what is the capital of France", Query},
		{"query cue mid sentence", "i forgot the difference between mv and cp", Query},
		{"automation chain", "open chrome and then play music", Automation},
		{"automation routine", "run my morning routine", Automation},
		{"tell me", "tell me about black holes", Query},
		{"default action", "add task buy milk", Action},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.command))
		})
	}
}

func TestClassifyQuestionWithVerbIsAction(t *testing.T) {
	// Trailing question mark alone does not make a command a query when an
	// action verb is present.
	require.Equal(t, Action, Classify("can you close Terminal?"))
	require.Equal(t, Query, Classify("what happened yesterday?"))
}

func TestShouldUseTools(t *testing.T) {
	require.False(t, ShouldUseTools(Query))
	require.True(t, ShouldUseTools(Action))
	require.True(t, ShouldUseTools(Automation))
}
