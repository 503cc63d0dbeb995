package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyItem(t *testing.T) {
	var gotAuth, gotPrompt string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])
		messages := req["messages"].([]any)
		parts := messages[0].(map[string]any)["content"].([]any)
		gotPrompt = parts[0].(map[string]any)["text"].(string)

		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"name\":\"Cordless Drill\",\"description\":\"A power drill\",\"categories\":[\"Tools\"],\"confidence\":0.92}"}}]}`)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "sk-test", "test-model")
	ident, err := client.IdentifyItem(context.Background(), []byte("imagebytes"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Contains(t, gotPrompt, "between two and five", "prompt asks for 2-5 categories")
	assert.Equal(t, "Cordless Drill", ident.Name)
	assert.Equal(t, []string{"Tools"}, ident.Categories)
	assert.InDelta(t, 0.92, ident.Confidence, 0.001)
}

func TestIdentifyItemToleratesCodeFences(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"`+
			"```json\\n{\\\"name\\\":\\\"Lamp\\\",\\\"confidence\\\":0.5}\\n```"+`"}}]}`)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "sk-test", "test-model")
	ident, err := client.IdentifyItem(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", ident.Name)
}

func TestIdentifyItemErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"api error payload", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[]}`)
		}},
		{"unparseable content", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[{"message":{"content":"sorry, I cannot tell"}}]}`)
		}},
		{"missing name", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"confidence\":0.4}"}}]}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			client := NewClient(ts.URL, "sk-test", "test-model")
			_, err := client.IdentifyItem(context.Background(), []byte("img"), "image/jpeg")
			assert.Error(t, err)
		})
	}
}

func TestRankItemsFiltersUnknownIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"[7,99,3]"}}]}`)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "sk-test", "test-model")
	ids, err := client.RankItems(context.Background(), "tools", []SearchCandidate{
		{ID: 3, Name: "Drill"},
		{ID: 7, Name: "Saw"},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{7, 3}, ids, "hallucinated ids are dropped, order kept")
}

func TestRankItemsEmptyResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"[]"}}]}`)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "sk-test", "test-model")
	ids, err := client.RankItems(context.Background(), "submarine", []SearchCandidate{{ID: 1, Name: "Drill"}})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, string(extractJSON(tt.in)))
	}
}
