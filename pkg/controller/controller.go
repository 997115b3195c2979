// Package controller owns the user's draft and drives the submission
// lifecycle. Outcomes are reported only through the shared Store: a field
// change resets a settled outcome to Idle, and Submit moves it through Pending
// to Succeeded or Failed.
//
// The controller does not guard against re-entrant submits. Callers read
// Store.Current().Pending() and must not dispatch another Submit while it is
// true (the web front end answers 409, the terminal front end is sequential).
package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-lesionform/pkg/client"
	"github.com/goliatone/go-lesionform/pkg/model"
)

// DefaultFallbackMessage is shown when a failed submission has no server
// message.
const DefaultFallbackMessage = "Prediction failed. Please try again or check your input."

// Submitter sends a validated draft to the prediction service.
type Submitter interface {
	Submit(ctx context.Context, draft model.Draft) (model.PredictionResult, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, draft model.Draft) (model.PredictionResult, error)

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, draft model.Draft) (model.PredictionResult, error) {
	return f(ctx, draft)
}

// Controller holds one draft for the lifetime of a session. The draft is never
// reset; failed submissions leave it intact for editing.
type Controller struct {
	mu          sync.Mutex
	draft       model.Draft
	preview     string
	previewErr  error
	previewRead *previewRead

	store          *Store
	submitter      Submitter
	previewer      Previewer
	fallback       string
	extractMessage func(error) (string, bool)

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a controller that submits through submitter.
func New(submitter Submitter, options ...Option) *Controller {
	bg, cancel := context.WithCancel(context.Background())
	c := &Controller{
		submitter:      submitter,
		previewer:      DataURLPreview,
		fallback:       DefaultFallbackMessage,
		extractMessage: client.ServerMessage,
		bg:             bg,
		cancel:         cancel,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.store == nil {
		c.store = NewStore()
	}
	return c
}

// Store returns the shared result store.
func (c *Controller) Store() *Store {
	return c.store
}

// Draft returns a snapshot of the current draft.
func (c *Controller) Draft() model.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Change applies a user edit. It clears any previous result or error, leaving
// a pending submission untouched, and for image edits starts a background
// preview read tagged with the new image's identity (or clears the preview
// when the image is removed).
func (c *Controller) Change(ctx context.Context, update model.FieldUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	next, err := c.draft.Apply(update)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.draft = next
	if update.Field == model.FieldImage {
		c.preview = ""
		c.previewErr = nil
		c.previewRead = nil
		if next.Image != nil {
			c.startPreview(*next.Image)
		}
	}
	c.mu.Unlock()

	c.store.Clear()
	return nil
}

// Submit runs the validation gate and, when it passes, one submission. The
// final state is stored and also returned for convenience.
func (c *Controller) Submit(ctx context.Context) model.SubmissionState {
	c.store.Set(model.Pending())

	draft := c.Draft()
	if err := model.Validate(draft); err != nil {
		message := err.Error()
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			message = verr.Message
		}
		return c.finish(model.Failed(message))
	}

	if c.submitter == nil {
		return c.finish(model.Failed(c.fallback))
	}

	result, err := c.submitter.Submit(ctx, draft)
	if err != nil {
		message := c.fallback
		if serverMessage, ok := c.extractMessage(err); ok {
			message = serverMessage
		}
		return c.finish(model.Failed(message))
	}
	return c.finish(model.Succeeded(result))
}

func (c *Controller) finish(state model.SubmissionState) model.SubmissionState {
	c.store.Set(state)
	return state
}

// Close stops outstanding preview reads and waits for them to return.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}
