package agent

import "context"

// Middleware intercepts a turn around the model invocation. BeforeModel hooks
// of all attached middleware run in attachment order strictly before the
// model call; AfterModel hooks run in attachment order strictly after. This
// ordering is what guarantees a turn's own content is never visible to its
// own retrieval: backends are only written to in AfterModel, after every
// BeforeModel retrieval search has completed.
type Middleware interface {
	// Name identifies the middleware in logs and errors.
	Name() string

	// BeforeModel runs before the model invocation. Retrieval middleware use
	// it to append context to the state; augmentation middleware use it to
	// capture the pending user message.
	BeforeModel(ctx context.Context, state *State) error

	// AfterModel runs after the model reply has been appended to the state.
	// Augmentation middleware use it to commit the completed turn.
	AfterModel(ctx context.Context, state *State) error
}
