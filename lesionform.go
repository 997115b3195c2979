// Package lesionform exposes the classifier form's building blocks from the
// top-level module for callers that just want to submit a draft or serve the
// page.
package lesionform

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-lesionform/pkg/client"
	"github.com/goliatone/go-lesionform/pkg/controller"
	"github.com/goliatone/go-lesionform/pkg/model"
	"github.com/goliatone/go-lesionform/pkg/renderers/html"
)

// Draft aliases model.Draft.
type Draft = model.Draft

// PredictionResult aliases model.PredictionResult.
type PredictionResult = model.PredictionResult

// SubmissionState aliases model.SubmissionState.
type SubmissionState = model.SubmissionState

// NewController builds a client for endpoint and a controller that submits
// through it.
func NewController(endpoint string, clientOptions []client.Option, options ...controller.Option) (*controller.Controller, error) {
	predictor, err := client.New(endpoint, clientOptions...)
	if err != nil {
		return nil, err
	}
	return controller.New(predictor, options...), nil
}

// Predict runs one draft through the same gate and lifecycle the front ends
// use and returns the final state. Validation failures never reach endpoint.
func Predict(ctx context.Context, endpoint string, draft Draft, clientOptions ...client.Option) (SubmissionState, error) {
	ctrl, err := NewController(endpoint, clientOptions, controller.WithPreviewer(skipPreview))
	if err != nil {
		return SubmissionState{}, err
	}
	defer ctrl.Close()

	updates := []model.FieldUpdate{
		model.SetImage(draft.Image),
		model.SetField(model.FieldSex, draft.Sex),
		model.SetField(model.FieldDxType, draft.DxType),
		model.SetField(model.FieldLocalization, draft.Localization),
		model.SetField(model.FieldAge, draft.Age),
	}
	for _, update := range updates {
		if err := ctrl.Change(ctx, update); err != nil {
			return SubmissionState{}, err
		}
	}
	return ctrl.Submit(ctx), nil
}

func skipPreview(context.Context, model.ImageFile) (string, error) {
	return "", nil
}

// EmbeddedTemplates exposes the built-in page templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// AssetsFS exposes the page stylesheet.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(lesionform.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return html.AssetsFS()
}
