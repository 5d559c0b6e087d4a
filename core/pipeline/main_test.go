package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// geminiServer is a fake Gemini REST endpoint answering every generate call with text
type geminiServer struct {
	*httptest.Server
	calls    atomic.Int32
	lastBody atomic.Value
}

func newGeminiServer(t *testing.T, status int, text string) *geminiServer {
	s := &geminiServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		s.lastBody.Store(string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error": {"code": 500, "message": "backend unavailable", "status": "INTERNAL"}}`))
			return
		}

		resp := map[string]interface{}{
			"candidates": []interface{}{
				map[string]interface{}{
					"content": map[string]interface{}{
						"role":  "model",
						"parts": []interface{}{map[string]interface{}{"text": text}},
					},
					"finishReason": "STOP",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *geminiServer) body() string {
	if v, ok := s.lastBody.Load().(string); ok {
		return v
	}
	return ""
}

func newTestClient(t *testing.T, baseURL string) *genai.Client {
	client, err := NewGenAIClient(context.Background(), "test-key", baseURL)
	require.NoError(t, err)
	return client
}
