package generators

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reusee/dscope"

	"github.com/reusee/taiplan/configs"
	"github.com/reusee/taiplan/modes"
)

func testScope(t *testing.T) dscope.Scope {
	return dscope.New(
		modes.ForTest(t),
		new(Module),
		dscope.Provide(configs.NewLoader(nil, "")),
	)
}

func TestOpenAIComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %s", req.Model)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("auth = %s", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []ChatCompletionChoice{
				{
					Message: ChatCompletionMessage{
						Role:    "assistant",
						Content: "pong",
					},
				},
			},
		})
	}))
	defer server.Close()

	testScope(t).Call(func(
		newOpenAI NewOpenAI,
	) {
		client := newOpenAI(GeneratorArgs{
			BaseURL: server.URL,
			APIKey:  "sk-test",
			Model:   "test-model",
		})
		content, err := client.Complete(t.Context(), []ChatCompletionMessage{
			{Role: "user", Content: "ping"},
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if content != "pong" {
			t.Fatalf("got %q", content)
		}
	})
}

func TestOpenAIErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error: &APIError{
				Message: "bad model",
			},
		})
	}))
	defer server.Close()

	testScope(t).Call(func(
		newOpenAI NewOpenAI,
	) {
		client := newOpenAI(GeneratorArgs{
			BaseURL: server.URL,
			Model:   "nope",
		})
		_, err := client.Complete(t.Context(), nil, nil)
		if err == nil || err.Error() != "bad model" {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestLLMCallMessages(t *testing.T) {
	var got ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []ChatCompletionChoice{
				{Message: ChatCompletionMessage{Content: `{"ok": true}`}},
			},
		})
	}))
	defer server.Close()

	testScope(t).Fork(
		func() DefaultBaseURL {
			return DefaultBaseURL(server.URL)
		},
	).Call(func(
		llmCall LLMCall,
	) {
		res, err := llmCall(t.Context(), "summarize", "some text", map[string]any{
			"format": "json",
			"model":  "other-model",
		})
		if err != nil {
			t.Fatal(err)
		}
		if res != `{"ok": true}` {
			t.Fatalf("res = %v", res)
		}
		if len(got.Messages) != 2 ||
			got.Messages[0].Role != "system" ||
			got.Messages[0].Content != "summarize" ||
			got.Messages[1].Role != "user" ||
			got.Messages[1].Content != "some text" {
			t.Fatalf("messages = %+v", got.Messages)
		}
		if got.Model != "other-model" {
			t.Errorf("model = %s", got.Model)
		}
		if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
			t.Errorf("response format = %+v", got.ResponseFormat)
		}
	})
}
