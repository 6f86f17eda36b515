package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpo-explorer/backend/internal/domain/providers"
	"github.com/jpo-explorer/backend/pkg/config"
)

func newTestServer(t *testing.T) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var bodies []map[string]interface{}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "mistral-large-latest",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"keywords\":[\"informatique\"]}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	})
	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "mistral-embed",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.1, 0.2, 0.3]}],
			"usage": {"prompt_tokens": 3, "total_tokens": 3}
		}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &bodies
}

func testConfig(baseURL string) *config.LLMConfig {
	return &config.LLMConfig{
		Provider:       config.ProviderMistral,
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "mistral-large-latest",
		EmbeddingModel: "mistral-embed",
		RateLimitRPM:   -1,
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(&config.LLMConfig{Provider: config.ProviderMistral})
	assert.Error(t, err)
}

func TestComplete_SendsSystemAndUserMessages(t *testing.T) {
	server, bodies := newTestServer(t)
	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)
	defer client.Close()

	text, err := client.Complete(t.Context(), providers.ChatRequest{
		System:      "system prompt",
		User:        "informatique Lyon",
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"keywords":["informatique"]}`, text)

	require.Len(t, *bodies, 1)
	body := (*bodies)[0]
	assert.Equal(t, "mistral-large-latest", body["model"])

	messages, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
}

func TestEmbedText(t *testing.T) {
	server, _ := newTestServer(t)
	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)
	defer client.Close()

	vector, err := client.EmbedText(t.Context(), "licence informatique")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestComplete_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	client, err := NewClient(cfg)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Complete(t.Context(), providers.ChatRequest{System: "s", User: "u"})
	assert.Error(t, err)
}

func TestComplete_ConfiguredTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	client, err := NewClient(cfg)
	require.NoError(t, err)
	defer client.Close()

	start := time.Now()
	_, err = client.Complete(t.Context(), providers.ChatRequest{System: "s", User: "u"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestComplete_NoTimeoutByDefault(t *testing.T) {
	server, _ := newTestServer(t)
	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)
	defer client.Close()

	assert.Zero(t, client.timeout)
	_, err = client.Complete(t.Context(), providers.ChatRequest{System: "s", User: "u"})
	require.NoError(t, err)
}
