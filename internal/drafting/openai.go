package drafting

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hyperengineering/okrpulse/internal/types"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ Drafter = (*OpenAI)(nil)

const vaguenessMaxTokens = 200

// ChatService is the slice of the OpenAI client used here, so tests can
// substitute a fake.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Config holds the model settings for OpenAI.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	CacheSize int
}

// OpenAI drafts OKR text with OpenAI chat completions. Identical prompts are
// answered from an LRU cache.
type OpenAI struct {
	chat      ChatService
	model     openai.ChatModel
	maxTokens int64
	cache     *lru.Cache[string, string]
}

// NewOpenAI creates a drafter backed by the OpenAI API.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return newOpenAI(client.Chat.Completions, cfg)
}

func newOpenAI(chat ChatService, cfg Config) (*OpenAI, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &OpenAI{
		chat:      chat,
		model:     openai.ChatModel(cfg.Model),
		maxTokens: int64(cfg.MaxTokens),
		cache:     cache,
	}, nil
}

// ModelName returns the chat model name.
func (o *OpenAI) ModelName() string {
	return string(o.model)
}

func cacheKey(maxTokens int64, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("%d:%s", maxTokens, hex.EncodeToString(sum[:]))
}

// complete sends a single user message and returns the reply text.
func (o *OpenAI) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	key := cacheKey(maxTokens, prompt)
	if cached, ok := o.cache.Get(key); ok {
		return cached, nil
	}

	resp, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Model:     openai.F(o.model),
		MaxTokens: openai.F(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	o.cache.Add(key, text)
	return text, nil
}

// checkVagueness returns non-empty feedback when answer is too vague to draft from.
func (o *OpenAI) checkVagueness(ctx context.Context, answer, fallback string) (string, error) {
	text, err := o.complete(ctx, vaguenessPrompt(answer), vaguenessMaxTokens)
	if err != nil {
		return "", err
	}
	v := parseVagueness(text)
	if !v.IsVague {
		return "", nil
	}
	if v.Feedback != nil && strings.TrimSpace(*v.Feedback) != "" {
		return *v.Feedback, nil
	}
	return fallback, nil
}

// GenerateObjective drafts one objective from the Q&A answers.
func (o *OpenAI) GenerateObjective(ctx context.Context, req types.GenerateObjectiveRequest) (*types.DraftingResponse, error) {
	feedback, err := o.checkVagueness(ctx, req.Answers.MostImportantThing, defaultObjectiveFeedback)
	if err != nil {
		return nil, fmt.Errorf("check vagueness: %w", err)
	}
	if feedback != "" {
		slog.Debug("answer too vague", "component", "drafting", "step", "objective")
		return &types.DraftingResponse{Feedback: feedback}, nil
	}

	text, err := o.complete(ctx, generateObjectivePrompt(req.DepartmentGoal, req.Answers.MostImportantThing, req.Answers.WhyImportant), o.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate objective: %w", err)
	}
	objective := cleanObjective(text)
	if objective == "" {
		return nil, fmt.Errorf("generate objective: %w: empty text", ErrMalformedResponse)
	}
	return &types.DraftingResponse{Objective: objective}, nil
}

// GenerateKeyResults drafts key results for an objective from the Q&A answers.
func (o *OpenAI) GenerateKeyResults(ctx context.Context, req types.GenerateKeyResultsRequest) (*types.DraftingResponse, error) {
	feedback, err := o.checkVagueness(ctx, req.Answers.KeyActions, defaultKeyResultFeedback)
	if err != nil {
		return nil, fmt.Errorf("check vagueness: %w", err)
	}
	if feedback != "" {
		slog.Debug("answer too vague", "component", "drafting", "step", "key_results")
		return &types.DraftingResponse{Feedback: feedback}, nil
	}

	text, err := o.complete(ctx, generateKeyResultsPrompt(req.DepartmentGoal, req.Objective, req.Answers.KeyActions, req.Answers.SuccessCriteria), o.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate key results: %w", err)
	}
	krs, err := parseKeyResults(text)
	if err != nil {
		return nil, fmt.Errorf("generate key results: %w", err)
	}
	return &types.DraftingResponse{KeyResults: krs}, nil
}

// OptimizeObjective revises an objective to address the user's feedback.
func (o *OpenAI) OptimizeObjective(ctx context.Context, req types.OptimizeObjectiveRequest) (*types.DraftingResponse, error) {
	text, err := o.complete(ctx, optimizeObjectivePrompt(req.DepartmentGoal, req.Objective, req.Feedback), o.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("optimize objective: %w", err)
	}
	objective := cleanObjective(text)
	if objective == "" {
		return nil, fmt.Errorf("optimize objective: %w: empty text", ErrMalformedResponse)
	}
	return &types.DraftingResponse{Objective: objective}, nil
}

// OptimizeKeyResults revises key results to address the user's feedback.
func (o *OpenAI) OptimizeKeyResults(ctx context.Context, req types.OptimizeKeyResultsRequest) (*types.DraftingResponse, error) {
	text, err := o.complete(ctx, optimizeKeyResultsPrompt(req.Objective, req.KeyResults, req.Feedback), o.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("optimize key results: %w", err)
	}
	krs, err := parseKeyResults(text)
	if err != nil {
		return nil, fmt.Errorf("optimize key results: %w", err)
	}
	return &types.DraftingResponse{KeyResults: krs}, nil
}
