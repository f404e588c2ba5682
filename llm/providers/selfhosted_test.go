package providers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinscribe/clinscribe/llm"
	"github.com/clinscribe/clinscribe/model"
)

func TestSelfHosted_BuildURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{
			name:    "appends chat completions path",
			baseURL: "http://localhost:11434/v1",
			want:    "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "trailing slash",
			baseURL: "http://localhost:11434/v1/",
			want:    "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "already a completions URL",
			baseURL: "http://gateway.internal/v1/chat/completions",
			want:    "http://gateway.internal/v1/chat/completions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewSelfHosted(SelfHostedConfig{BaseURL: tt.baseURL})
			url, err := adapter.BuildURL(model.Params{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, url)
		})
	}
}

func TestSelfHosted_BuildURL_MissingBaseURLIsConfiguration(t *testing.T) {
	adapter := NewSelfHosted(SelfHostedConfig{})

	_, err := adapter.BuildURL(model.Params{})
	require.Error(t, err)
	assert.True(t, llm.IsConfiguration(err))
}

func TestSelfHosted_SetHeaders_GatewayCredentials(t *testing.T) {
	tests := []struct {
		name       string
		id, secret string
		wantHeader bool
	}{
		{name: "both set", id: "client-id", secret: "client-secret", wantHeader: true},
		{name: "only id", id: "client-id", wantHeader: false},
		{name: "only secret", secret: "client-secret", wantHeader: false},
		{name: "neither", wantHeader: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewSelfHosted(SelfHostedConfig{
				BaseURL:             "http://localhost:11434/v1",
				GatewayClientID:     tt.id,
				GatewayClientSecret: tt.secret,
			})

			req, err := http.NewRequest(http.MethodPost, "http://example.test", nil)
			require.NoError(t, err)
			require.NoError(t, adapter.SetHeaders(req))

			if tt.wantHeader {
				assert.Equal(t, tt.id, req.Header.Get("CF-Access-Client-Id"))
				assert.Equal(t, tt.secret, req.Header.Get("CF-Access-Client-Secret"))
			} else {
				assert.Empty(t, req.Header.Get("CF-Access-Client-Id"))
				assert.Empty(t, req.Header.Get("CF-Access-Client-Secret"))
			}
		})
	}
}

func TestSelfHosted_BuildRequestBody_ModelOverride(t *testing.T) {
	adapter := NewSelfHosted(SelfHostedConfig{
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1:70b",
	})

	body, err := adapter.BuildRequestBody(model.Params{
		Model:       "gemini-2.5-flash",
		Temperature: 0.7,
		MaxTokens:   4096,
	}, "prompt")
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "llama3.1:70b", req["model"])
	assert.Equal(t, float64(4096), req["max_tokens"])
}

func TestSelfHosted_BuildRequestBody_TierModelByDefault(t *testing.T) {
	adapter := NewSelfHosted(SelfHostedConfig{BaseURL: "http://localhost:11434/v1"})

	body, err := adapter.BuildRequestBody(model.Params{Model: "qwen2.5:14b"}, "prompt")
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "qwen2.5:14b", req["model"])
}

func TestSelfHosted_ParseResponse(t *testing.T) {
	body := `{
		"id": "chatcmpl-1",
		"model": "llama3.1:70b",
		"choices": [{
			"message": {"role": "assistant", "content": "Assessment complete."},
			"finish_reason": "stop"
		}],
		"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
	}`

	adapter := NewSelfHosted(SelfHostedConfig{BaseURL: "http://localhost:11434/v1"})
	completion, err := adapter.ParseResponse([]byte(body))

	require.NoError(t, err)
	assert.Equal(t, "Assessment complete.", completion.Content)
	assert.Equal(t, "llama3.1:70b", completion.Model)
	assert.Equal(t, 8, completion.Usage.TotalTokens)
}

func TestSelfHosted_ParseResponse_NoChoices(t *testing.T) {
	adapter := NewSelfHosted(SelfHostedConfig{BaseURL: "http://localhost:11434/v1"})

	_, err := adapter.ParseResponse([]byte(`{"choices": []}`))
	require.Error(t, err)
}
