// Package drafting turns a user's Q&A answers into suggested objective and
// key result text using a chat completion model.
package drafting

import (
	"context"
	"errors"

	"github.com/hyperengineering/okrpulse/internal/types"
)

var (
	// ErrUnavailable is returned when no model is configured.
	ErrUnavailable = errors.New("drafting service unavailable")
	// ErrMalformedResponse is returned when the model reply cannot be parsed.
	ErrMalformedResponse = errors.New("malformed drafting response")
)

// Drafter generates and revises OKR text. A result with Feedback set and no
// text means the user's answer was too vague to draft from.
type Drafter interface {
	GenerateObjective(ctx context.Context, req types.GenerateObjectiveRequest) (*types.DraftingResponse, error)
	GenerateKeyResults(ctx context.Context, req types.GenerateKeyResultsRequest) (*types.DraftingResponse, error)
	OptimizeObjective(ctx context.Context, req types.OptimizeObjectiveRequest) (*types.DraftingResponse, error)
	OptimizeKeyResults(ctx context.Context, req types.OptimizeKeyResultsRequest) (*types.DraftingResponse, error)
	ModelName() string
}

// NoopDrafter is used when no API key is configured.
type NoopDrafter struct{}

var _ Drafter = NoopDrafter{}

func (NoopDrafter) GenerateObjective(context.Context, types.GenerateObjectiveRequest) (*types.DraftingResponse, error) {
	return nil, ErrUnavailable
}

func (NoopDrafter) GenerateKeyResults(context.Context, types.GenerateKeyResultsRequest) (*types.DraftingResponse, error) {
	return nil, ErrUnavailable
}

func (NoopDrafter) OptimizeObjective(context.Context, types.OptimizeObjectiveRequest) (*types.DraftingResponse, error) {
	return nil, ErrUnavailable
}

func (NoopDrafter) OptimizeKeyResults(context.Context, types.OptimizeKeyResultsRequest) (*types.DraftingResponse, error) {
	return nil, ErrUnavailable
}

func (NoopDrafter) ModelName() string { return "" }
