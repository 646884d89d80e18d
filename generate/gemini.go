package generate

import (
	"context"

	"google.golang.org/genai"

	"github.com/dgnsrekt/docent/tts"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini streams from the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model}, nil
}

// Contents builds the request parts: the image first, then the prompt.
func Contents(req Request) []*genai.Content {
	var parts []*genai.Part
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	if req.Prompt != "" {
		parts = append(parts, genai.NewPartFromText(req.Prompt))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// Stream implements Backend.
func (g *Gemini) Stream(ctx context.Context, req Request) (tts.Stream, error) {
	var config *genai.GenerateContentConfig
	if req.SystemInstruction != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		}
	}

	responses := g.client.Models.GenerateContentStream(ctx, g.model, Contents(req), config)
	return func(yield func(tts.Chunk, error) bool) {
		for resp, err := range responses {
			if err != nil {
				yield(tts.Chunk{}, err)
				return
			}
			if !yield(tts.Chunk{Text: resp.Text()}, nil) {
				return
			}
		}
	}, nil
}
