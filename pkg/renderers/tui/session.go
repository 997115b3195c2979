// Package tui is the terminal front end: it prompts for each form field,
// submits through the controller and prints the outcome as text.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-lesionform/pkg/controller"
	"github.com/goliatone/go-lesionform/pkg/model"
	"github.com/goliatone/go-lesionform/pkg/render"
)

// Session walks a user through one form until a prediction succeeds or the
// user stops retrying. It is sequential, so a second submit can never be
// dispatched while one is pending.
type Session struct {
	controller *controller.Controller
	driver     PromptDriver
	out        io.Writer
	renderer   render.Renderer
	loadImage  ImageLoader
	theme      Theme

	imagePath string
}

// NewSession binds a session to a controller. The controller is not closed by
// the session.
func NewSession(ctrl *controller.Controller, options ...Option) (*Session, error) {
	if ctrl == nil {
		return nil, errors.New("tui: controller is required")
	}
	s := &Session{
		controller: ctrl,
		renderer:   NewTextRenderer(),
		loadImage:  model.ImageFromPath,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(s.out)
	}
	return s, nil
}

// Run prompts, submits and prints the result. Previous answers become the
// defaults when the user retries after a failure.
func (s *Session) Run(ctx context.Context) (model.PredictionResult, error) {
	unsubscribe := s.controller.Store().Subscribe(func(state model.SubmissionState) {
		if state.Pending() {
			_ = s.driver.Info(ctx, s.theme.InfoPrefix+render.CaptionPending)
		}
	})
	defer unsubscribe()

	for {
		if err := s.collect(ctx); err != nil {
			return model.PredictionResult{}, err
		}

		state := s.controller.Submit(ctx)
		if err := s.show(ctx, state); err != nil {
			return model.PredictionResult{}, err
		}
		if result, ok := state.Result(); ok {
			return result, nil
		}

		retry, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Edit and retry?", Default: true})
		if err != nil {
			return model.PredictionResult{}, err
		}
		if !retry {
			return model.PredictionResult{}, ErrNoPrediction
		}
	}
}

func (s *Session) collect(ctx context.Context) error {
	if err := s.promptImage(ctx); err != nil {
		return err
	}
	for _, field := range []model.FieldName{model.FieldSex, model.FieldDxType, model.FieldLocalization} {
		if err := s.promptSelect(ctx, field); err != nil {
			return err
		}
	}

	age, err := s.driver.Input(ctx, InputConfig{
		Message: model.FieldLabel(model.FieldAge),
		Default: s.controller.Draft().Age,
		Help:    "Age in years, greater than zero.",
	})
	if err != nil {
		return err
	}
	return s.controller.Change(ctx, model.SetField(model.FieldAge, age))
}

func (s *Session) promptImage(ctx context.Context) error {
	for {
		path, err := s.driver.Input(ctx, InputConfig{
			Message: "Image path",
			Default: s.imagePath,
			Help:    "Path to a photo of the lesion.",
		})
		if err != nil {
			return err
		}
		path = strings.TrimSpace(path)
		if path == "" {
			s.imagePath = ""
			return s.controller.Change(ctx, model.SetImage(nil))
		}
		if path == s.imagePath && s.controller.Draft().Image != nil {
			return nil
		}

		image, err := s.loadImage(path)
		if err != nil {
			if infoErr := s.driver.Info(ctx, fmt.Sprintf("%s%s %v", s.theme.ErrorPrefix, render.DefaultWarningIcon, err)); infoErr != nil {
				return infoErr
			}
			continue
		}
		s.imagePath = path
		if err := s.controller.Change(ctx, model.SetImage(&image)); err != nil {
			return err
		}
		if _, err := s.controller.AwaitPreview(ctx); err != nil {
			return s.driver.Info(ctx, fmt.Sprintf("%sPreview unavailable: %v", s.theme.ErrorPrefix, err))
		}
		return s.driver.Info(ctx, fmt.Sprintf("%sLoaded %s (%d bytes)", s.theme.InfoPrefix, image.Name, image.Size))
	}
}

func (s *Session) promptSelect(ctx context.Context, field model.FieldName) error {
	options := model.OptionsFor(field)
	labels := make([]string, 0, len(options))
	current := s.controller.Draft().Value(field)
	defaultIndex := -1
	for i, opt := range options {
		labels = append(labels, opt.Label)
		if opt.Value == current {
			defaultIndex = i
		}
	}

	idx, err := s.driver.Select(ctx, SelectConfig{
		Message:      model.FieldLabel(field),
		Options:      labels,
		DefaultIndex: defaultIndex,
		PageSize:     len(labels),
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		return fmt.Errorf("tui: invalid selection %d for %s", idx, field)
	}
	return s.controller.Change(ctx, model.SetField(field, options[idx].Value))
}

func (s *Session) show(ctx context.Context, state model.SubmissionState) error {
	view := render.NewView(s.controller.Draft(), "", state)
	out, err := s.renderer.Render(ctx, view)
	if err != nil {
		return fmt.Errorf("tui: render outcome: %w", err)
	}
	prefix := s.theme.InfoPrefix
	if view.Error != nil {
		prefix = s.theme.ErrorPrefix
	}
	return s.driver.Info(ctx, prefix+strings.TrimRight(string(out), "\n"))
}
