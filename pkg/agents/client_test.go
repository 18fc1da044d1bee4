package agents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/agents", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"agents":[
			{"id":"poet","name":"Poet","description":"writes verse","category":"writing"},
			{"id":"coder","name":"Coder","description":"writes code","category":"engineering"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	list, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "poet", list[0].ID)
	require.Equal(t, "engineering", list[1].Category)
}

func TestClientListServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).List(context.Background())
	require.Error(t, err)
}

func TestClientValidateKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/validate-key", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		if body["api_key"] == "sk-good" {
			_, _ = w.Write([]byte(`{"valid":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"valid":false,"message":"unknown key"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.ValidateKey(context.Background(), "  sk-good  ")
	require.NoError(t, err)
	require.True(t, result.Valid)

	result, err = client.ValidateKey(context.Background(), "sk-bad")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, "unknown key", result.Message)
}

func TestGroupByCategory(t *testing.T) {
	groups := GroupByCategory([]Agent{
		{ID: "poet", Category: "writing"},
		{ID: "mystery"},
		{ID: "coder", Category: "engineering"},
		{ID: "editor", Category: "writing"},
	})

	require.Len(t, groups, 3)
	require.Equal(t, "Uncategorized", groups[0].Category)
	require.Equal(t, "engineering", groups[1].Category)
	require.Equal(t, "writing", groups[2].Category)
	require.Len(t, groups[2].Agents, 2)
	require.Equal(t, "poet", groups[2].Agents[0].ID)
}
