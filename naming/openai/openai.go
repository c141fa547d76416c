// Package openai implements the cluster-naming provider on the OpenAI
// chat completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/orbiseo/orbiseo/naming"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	// maxLabelWords caps the sanitized label length.
	maxLabelWords = 5

	systemPrompt = "You are an SEO assistant. Given a list of semantically related " +
		"search keywords, reply with a short 2-5 word topic label that describes " +
		"the group. Reply with the label only, no quotes, no explanation."
)

// Namer produces cluster labels via the OpenAI chat completions API.
type Namer struct {
	client openai.Client
	model  string
}

type namerOptions struct {
	model   string
	baseURL string
}

// Option configures the Namer.
type Option func(*namerOptions)

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(o *namerOptions) {
		o.model = model
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *namerOptions) {
		o.baseURL = baseURL
	}
}

// NewNamer creates a new Namer.
func NewNamer(apiKey string, opts ...Option) *Namer {
	options := namerOptions{
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(&options)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if options.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(options.baseURL))
	}

	return &Namer{
		client: openai.NewClient(reqOpts...),
		model:  options.model,
	}
}

// NameCluster returns a short label describing the given keywords.
func (n *Namer) NameCluster(ctx context.Context, keywords []string) (string, error) {
	if len(keywords) == 0 {
		return "", fmt.Errorf("no keywords provided")
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(n.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("Keywords: " + strings.Join(keywords, ", ")),
		},
	}

	completion, err := n.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to name cluster: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	label := naming.SanitizeLabel(completion.Choices[0].Message.Content, maxLabelWords)
	if label == "" {
		return "", fmt.Errorf("empty label returned")
	}

	return label, nil
}

// Interface guard.
var _ naming.Namer = (*Namer)(nil)
