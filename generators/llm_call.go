package generators

import (
	"context"
	"encoding/json"

	"github.com/reusee/taiplan/envs"
	"github.com/reusee/taiplan/planvm"
)

// LLMCall adapts the chat completions client to the model-call contract the
// plan environment consumes.
type LLMCall envs.ModelCaller

func (Module) LLMCall(
	newOpenAI NewOpenAI,
	modelName DefaultModelName,
	baseURL DefaultBaseURL,
	apiKey APIKey,
) LLMCall {
	return func(ctx context.Context, instruction string, data any, options map[string]any) (any, error) {

		args := GeneratorArgs{
			BaseURL: string(baseURL),
			APIKey:  string(apiKey),
			Model:   string(modelName),
		}
		if name, ok := options["model"].(string); ok && name != "" {
			args.Model = name
		}

		messages := []ChatCompletionMessage{
			{
				Role:    "system",
				Content: instruction,
			},
		}
		if data != nil {
			content, ok := data.(string)
			if !ok {
				encoded, err := json.Marshal(data)
				if err != nil {
					return nil, err
				}
				content = string(encoded)
			}
			messages = append(messages, ChatCompletionMessage{
				Role:    "user",
				Content: content,
			})
		}

		var format *ResponseFormat
		if schema, ok := options["schema"]; ok && schema != nil {
			format = &ResponseFormat{
				Type: "json_schema",
				JSONSchema: &JSONSchema{
					Name:   "result",
					Schema: schema,
				},
			}
		} else if options["format"] == "json" || planvm.Truthy(options["structured"]) {
			format = &ResponseFormat{
				Type: "json_object",
			}
		}

		return newOpenAI(args).Complete(ctx, messages, format)
	}
}
