package render

import (
	"github.com/goliatone/go-lesionform/pkg/model"
)

// Submit button captions.
const (
	CaptionIdle    = "Predict"
	CaptionPending = "Predicting..."
)

// DefaultTitle heads the page and the text report.
const DefaultTitle = "Skin Lesion Classifier"

// OptionView is one choice of a select control.
type OptionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// SelectField is a select control with its current value.
type SelectField struct {
	Name    string       `json:"name"`
	Label   string       `json:"label"`
	Value   string       `json:"value"`
	Options []OptionView `json:"options"`
}

// View is everything a renderer needs to draw one state of the form.
type View struct {
	Title         string        `json:"title"`
	ImageName     string        `json:"image_name"`
	Preview       string        `json:"preview"`
	PreviewError  string        `json:"preview_error"`
	Selects       []SelectField `json:"selects"`
	Age           string        `json:"age"`
	Pending       bool          `json:"pending"`
	SubmitCaption string        `json:"submit_caption"`
	HasResult     bool          `json:"has_result"`
	ResultLabel   string        `json:"result_label"`
	Rows          []Row         `json:"rows"`
	Error         *ErrorAlert   `json:"error,omitempty"`

	Draft model.Draft           `json:"-"`
	State model.SubmissionState `json:"-"`
}

// NewView derives the page model from a draft, its preview and the shared
// submission state.
func NewView(draft model.Draft, preview string, state model.SubmissionState, options ...ViewOption) View {
	view := View{
		Title:         DefaultTitle,
		Preview:       preview,
		Age:           draft.Age,
		Pending:       state.Pending(),
		SubmitCaption: CaptionIdle,
		Draft:         draft,
		State:         state,
	}
	if draft.Image != nil {
		view.ImageName = draft.Image.Name
	}
	if view.Pending {
		view.SubmitCaption = CaptionPending
	}

	for _, field := range []model.FieldName{model.FieldSex, model.FieldDxType, model.FieldLocalization} {
		view.Selects = append(view.Selects, selectField(field, draft.Value(field)))
	}

	if result, ok := state.Result(); ok {
		view.HasResult = true
		view.ResultLabel = Label(result.PredictedClass)
		view.Rows = Table(result)
	}
	if alert, ok := ErrorView(state.ErrorMessage()); ok {
		view.Error = &alert
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&view)
	}
	return view
}

func selectField(field model.FieldName, value string) SelectField {
	catalogue := model.OptionsFor(field)
	options := make([]OptionView, 0, len(catalogue))
	for _, opt := range catalogue {
		options = append(options, OptionView{
			Value:    opt.Value,
			Label:    opt.Label,
			Selected: opt.Value == value,
		})
	}
	return SelectField{
		Name:    string(field),
		Label:   model.FieldLabel(field),
		Value:   value,
		Options: options,
	}
}
