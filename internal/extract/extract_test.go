package extract

import (
	"testing"

	"github.com/harunnryd/hibiki/internal/model/contract"

	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	known    map[string]bool
	required map[string]bool
}

func (f fakeCatalog) Known(name string) bool             { return f.known[name] }
func (f fakeCatalog) HasRequiredParams(name string) bool { return f.required[name] }

func testCatalog() fakeCatalog {
	return fakeCatalog{
		known: map[string]bool{
			"open_app":    true,
			"close_app":   true,
			"list_tasks":  true,
			"system_info": true,
		},
		required: map[string]bool{
			"open_app":    true,
			"close_app":   true,
			"system_info": true,
		},
	}
}

func TestFromResponseNativeCalls(t *testing.T) {
	resp := &contract.CompletionResponse{
		ToolCalls: []*contract.ToolCall{
			{Name: "open_app", Input: `{"app_name":"Spotify"}`},
		},
	}

	out := FromResponse(resp, testCatalog())
	require.Equal(t, ParsedCalls, out.Kind)
	require.Len(t, out.Calls, 1)
	require.Equal(t, "open_app", out.Calls[0].Name)
	require.JSONEq(t, `{"app_name":"Spotify"}`, string(out.Calls[0].Args))
}

func TestFromResponseMalformedNativeArgsBecomeEmpty(t *testing.T) {
	resp := &contract.CompletionResponse{
		ToolCalls: []*contract.ToolCall{
			{Name: "open_app", Input: `{"app_name": Spotify}`},
		},
	}

	out := FromResponse(resp, testCatalog())
	require.Equal(t, ParsedCalls, out.Kind)
	require.JSONEq(t, `{}`, string(out.Calls[0].Args))
}

func TestFromResponseInlineTags(t *testing.T) {
	resp := &contract.CompletionResponse{
		Content: `Sure. <open_app>{"app_name": "Notes"}</open_app> done`,
	}

	out := FromResponse(resp, testCatalog())
	require.Equal(t, ParsedCalls, out.Kind)
	require.Len(t, out.Calls, 1)
	require.Equal(t, "open_app", out.Calls[0].Name)
	require.JSONEq(t, `{"app_name":"Notes"}`, string(out.Calls[0].Args))
}

func TestFromResponseUnknownTagIgnored(t *testing.T) {
	resp := &contract.CompletionResponse{
		Content: `<made_up_tool>{"x":1}</made_up_tool>`,
	}

	out := FromResponse(resp, testCatalog())
	require.Equal(t, NoCalls, out.Kind)
	require.Empty(t, out.Calls)
}

func TestFromResponseMismatchedTagIgnored(t *testing.T) {
	resp := &contract.CompletionResponse{
		Content: `<open_app>{"app_name":"Notes"}</close_app>`,
	}

	out := FromResponse(resp, testCatalog())
	require.Equal(t, NoCalls, out.Kind)
}

func TestFromResponseEmptyTagOnlyForZeroRequiredParamTools(t *testing.T) {
	catalog := testCatalog()

	out := FromResponse(&contract.CompletionResponse{Content: `<list_tasks></list_tasks>`}, catalog)
	require.Equal(t, ParsedCalls, out.Kind)
	require.Equal(t, "list_tasks", out.Calls[0].Name)
	require.JSONEq(t, `{}`, string(out.Calls[0].Args))

	// system_info requires info_type, so the empty form is rejected.
	out = FromResponse(&contract.CompletionResponse{Content: `<system_info></system_info>`}, catalog)
	require.Equal(t, NoCalls, out.Kind)
}

func TestFromErrorRecoversMalformedCall(t *testing.T) {
	errText := `tool call validation failed: <function=open_app>{"app_name":"CapCut"}<function>`

	out := FromError(errText, testCatalog())
	require.Equal(t, ParsedCalls, out.Kind)
	require.Len(t, out.Calls, 1)
	require.Equal(t, "open_app", out.Calls[0].Name)
	require.JSONEq(t, `{"app_name":"CapCut"}`, string(out.Calls[0].Args))
}

func TestFromErrorNothingSalvageable(t *testing.T) {
	out := FromError("connection reset by peer", testCatalog())
	require.Equal(t, TransportError, out.Kind)
	require.Empty(t, out.Calls)
}

func TestDedupCanonicalJSON(t *testing.T) {
	calls := []Call{
		{Name: "open_app", Args: []byte(`{"app_name":"Notes"}`)},
		{Name: "open_app", Args: []byte(`{ "app_name" : "Notes" }`)},
		{Name: "open_app", Args: []byte(`{"app_name":"Spotify"}`)},
	}

	out := Dedup(calls)
	require.Len(t, out, 2)
	require.JSONEq(t, `{"app_name":"Notes"}`, string(out[0].Args))
	require.JSONEq(t, `{"app_name":"Spotify"}`, string(out[1].Args))
}

func TestDedupPreservesEmissionOrder(t *testing.T) {
	calls := []Call{
		{Name: "close_app", Args: []byte(`{"app_name":"Slack"}`)},
		{Name: "open_app", Args: []byte(`{"app_name":"Notes"}`)},
		{Name: "close_app", Args: []byte(`{"app_name":"Slack"}`)},
	}

	out := Dedup(calls)
	require.Len(t, out, 2)
	require.Equal(t, "close_app", out[0].Name)
	require.Equal(t, "open_app", out[1].Name)
}
