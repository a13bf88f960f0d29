package generators

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/reusee/dscope"

	"github.com/reusee/taiplan/logs"
	"github.com/reusee/taiplan/nets"
	"github.com/reusee/taiplan/vars"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	args   GeneratorArgs
	client nets.HTTPClient

	Logger dscope.Inject[logs.Logger]
}

type NewOpenAI func(args GeneratorArgs) *OpenAI

func (Module) NewOpenAI(
	inject dscope.InjectStruct,
	client nets.HTTPClient,
) NewOpenAI {
	return func(args GeneratorArgs) *OpenAI {
		ret := &OpenAI{
			args:   args,
			client: client,
		}
		inject(&ret)
		return ret
	}
}

var ErrRetryable = errors.New("retryable")

func (o *OpenAI) Complete(ctx context.Context, messages []ChatCompletionMessage, format *ResponseFormat) (string, error) {

	temperature := float32(0)
	if o.args.Temperature != nil {
		temperature = *o.args.Temperature
	}

	req := ChatCompletionRequest{
		Model:               o.args.Model,
		Messages:            messages,
		MaxCompletionTokens: vars.DerefOrZero(o.args.MaxGenerateTokens),
		Temperature:         temperature,
		ResponseFormat:      format,
	}

	o.Logger().InfoContext(ctx, "generating",
		"model", o.args.Model,
	)

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	url := strings.TrimSuffix(o.args.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	if o.args.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.args.APIKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == nil {
			err := fmt.Errorf("bad status: %d, body: %s", resp.StatusCode, string(body))
			if resp.StatusCode == http.StatusTooManyRequests {
				return "", errors.Join(err, ErrRetryable)
			}
			return "", err
		}
		errResp.Error.HTTPStatusCode = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", errors.Join(errResp.Error, ErrRetryable)
		}
		return "", errResp.Error
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("error unmarshalling response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

type ChatCompletionRequest struct {
	Model               string                  `json:"model"`
	Messages            []ChatCompletionMessage `json:"messages"`
	MaxCompletionTokens int                     `json:"max_completion_tokens,omitempty"`
	Temperature         float32                 `json:"temperature,omitempty"`
	ResponseFormat      *ResponseFormat         `json:"response_format,omitempty"`
}

type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

type JSONSchema struct {
	Name   string `json:"name"`
	Schema any    `json:"schema"`
	Strict bool   `json:"strict,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []ChatCompletionChoice `json:"choices"`
}

type ChatCompletionChoice struct {
	Message      ChatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type ErrorResponse struct {
	Error *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code           any     `json:"code,omitempty"`
	Message        string  `json:"message,omitempty"`
	Param          *string `json:"param,omitempty"`
	Type           string  `json:"type,omitempty"`
	HTTPStatusCode int     `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}
