package generate

import (
	"context"
	"encoding/base64"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/dgnsrekt/docent/tts"
)

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI streams chat completions from OpenAI or a compatible server.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI backend. baseURL may point at any
// OpenAI-compatible endpoint.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

// Messages builds the chat messages for req. Images are sent inline as
// data URLs.
func Messages(req Request) []openai.ChatCompletionMessage {
	var msgs []openai.ChatCompletionMessage
	if req.SystemInstruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}

	if req.Image == nil {
		return append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		})
	}

	url := "data:" + req.Image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(req.Image.Data)
	return append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto},
			},
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
		},
	})
}

// Stream implements Backend.
func (o *OpenAI) Stream(ctx context.Context, req Request) (tts.Stream, error) {
	stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: Messages(req),
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}

	return func(yield func(tts.Chunk, error) bool) {
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(tts.Chunk{}, err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if !yield(tts.Chunk{Text: resp.Choices[0].Delta.Content}, nil) {
				return
			}
		}
	}, nil
}
