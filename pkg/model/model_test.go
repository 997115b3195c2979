package model_test

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-lesionform/pkg/model"
)

func completeDraft() model.Draft {
	image := model.ImageFromBytes("lesion.png", []byte("png-bytes"))
	return model.Draft{
		Image:        &image,
		Sex:          "female",
		DxType:       "histo",
		Localization: "back",
		Age:          "45",
	}
}

func TestDraftApply_StoresRawValues(t *testing.T) {
	draft := model.Draft{}
	steps := []model.FieldUpdate{
		model.SetField(model.FieldSex, "male"),
		model.SetField(model.FieldDxType, "follow_up"),
		model.SetField(model.FieldLocalization, "lower extremity"),
		model.SetField(model.FieldAge, " 0042 "),
	}
	for _, step := range steps {
		next, err := draft.Apply(step)
		if err != nil {
			t.Fatalf("apply %s: %v", step.Field, err)
		}
		draft = next
	}

	want := model.Draft{Sex: "male", DxType: "follow_up", Localization: "lower extremity", Age: " 0042 "}
	if diff := cmp.Diff(want, draft, cmp.AllowUnexported(model.ImageFile{})); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}
}

func TestDraftApply_DoesNotMutateReceiver(t *testing.T) {
	original := completeDraft()
	next, err := original.Apply(model.SetField(model.FieldAge, "46"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if original.Age != "45" {
		t.Fatalf("receiver mutated: age %q", original.Age)
	}
	if next.Age != "46" {
		t.Fatalf("expected updated age, got %q", next.Age)
	}
}

func TestDraftApply_ImageSelectAndClear(t *testing.T) {
	image := model.ImageFromBytes("a.jpg", []byte{0xFF, 0xD8})
	draft, err := model.Draft{}.Apply(model.SetImage(&image))
	if err != nil {
		t.Fatalf("select image: %v", err)
	}
	if draft.ImageID() != image.ID {
		t.Fatalf("image id mismatch: want %s got %s", image.ID, draft.ImageID())
	}

	draft, err = draft.Apply(model.SetImage(nil))
	if err != nil {
		t.Fatalf("clear image: %v", err)
	}
	if draft.Image != nil || draft.ImageID() != "" {
		t.Fatalf("expected image cleared, got %+v", draft.Image)
	}
}

func TestDraftApply_UnknownField(t *testing.T) {
	_, err := model.Draft{}.Apply(model.SetField("weight", "80"))
	if !errors.Is(err, model.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestImageIdentityIsPerSelection(t *testing.T) {
	a := model.ImageFromBytes("same.png", []byte("x"))
	b := model.ImageFromBytes("same.png", []byte("x"))
	if a.ID == b.ID {
		t.Fatalf("expected distinct identities for separate selections")
	}
}

func TestImageFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesion.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	image, err := model.ImageFromPath(path)
	if err != nil {
		t.Fatalf("image from path: %v", err)
	}
	if image.Name != "lesion.jpg" || image.Size != 4 {
		t.Fatalf("unexpected image metadata: %+v", image)
	}
	rc, err := image.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "jpeg" {
		t.Fatalf("unexpected contents %q", data)
	}

	if _, err := model.ImageFromPath(dir); err == nil {
		t.Fatalf("expected error for directory")
	}
}

func TestValidate_MissingFields(t *testing.T) {
	clear := map[model.FieldName]func(*model.Draft){
		model.FieldImage:        func(d *model.Draft) { d.Image = nil },
		model.FieldSex:          func(d *model.Draft) { d.Sex = "" },
		model.FieldDxType:       func(d *model.Draft) { d.DxType = "" },
		model.FieldLocalization: func(d *model.Draft) { d.Localization = "" },
		model.FieldAge:          func(d *model.Draft) { d.Age = "" },
	}
	for field, mutate := range clear {
		t.Run(string(field), func(t *testing.T) {
			draft := completeDraft()
			mutate(&draft)

			err := model.Validate(draft)
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Message != model.MessageFieldsRequired {
				t.Fatalf("unexpected message %q", verr.Message)
			}
		})
	}
}

func TestValidate_RequiredWinsOverAge(t *testing.T) {
	draft := completeDraft()
	draft.Sex = ""
	draft.Age = "abc"

	err := model.Validate(draft)
	if err == nil || err.Error() != model.MessageFieldsRequired {
		t.Fatalf("expected required message first, got %v", err)
	}
}

func TestValidate_Age(t *testing.T) {
	cases := map[string]bool{
		"45":    true,
		"0.5":   true,
		" 30 ":  true,
		"1e2":   true,
		"0":     false,
		"-3":    false,
		"abc":   false,
		"12abc": false,
		"NaN":   false,
		"   ":   false,
	}
	for raw, valid := range cases {
		t.Run(raw, func(t *testing.T) {
			draft := completeDraft()
			draft.Age = raw
			err := model.Validate(draft)
			if valid && err != nil {
				t.Fatalf("expected %q to pass, got %v", raw, err)
			}
			if !valid && (err == nil || err.Error() != model.MessageInvalidAge) {
				t.Fatalf("expected invalid age for %q, got %v", raw, err)
			}
		})
	}
}

func TestProbabilities_PreservesDocumentOrder(t *testing.T) {
	payload := []byte(`{"predicted_class":"nv","class_probabilities":{"mel":0.1,"nv":0.7,"bcc":0.2}}`)

	var result model.PredictionResult
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := model.PredictionResult{
		PredictedClass: "nv",
		ClassProbabilities: model.Probabilities{
			{Class: "mel", Value: 0.1},
			{Class: "nv", Value: 0.7},
			{Class: "bcc", Value: 0.2},
		},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != string(payload) {
		t.Fatalf("expected order-preserving encoding, got %s", encoded)
	}
}

func TestProbabilities_MissingOrNull(t *testing.T) {
	for _, payload := range []string{`{"predicted_class":"xyz"}`, `{"predicted_class":"xyz","class_probabilities":null}`} {
		var result model.PredictionResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			t.Fatalf("unmarshal %s: %v", payload, err)
		}
		if result.PredictedClass != "xyz" || len(result.ClassProbabilities) != 0 {
			t.Fatalf("unexpected result for %s: %+v", payload, result)
		}
	}
}

func TestProbabilities_RejectsNonObject(t *testing.T) {
	var result model.PredictionResult
	if err := json.Unmarshal([]byte(`{"class_probabilities":[0.1]}`), &result); err == nil {
		t.Fatalf("expected error for array payload")
	}
}

func TestSubmissionState_MutuallyExclusive(t *testing.T) {
	result := model.PredictionResult{PredictedClass: "mel"}
	states := []model.SubmissionState{
		model.Idle(),
		model.Pending(),
		model.Succeeded(result),
		model.Failed("boom"),
		{},
	}
	for _, state := range states {
		_, hasResult := state.Result()
		if hasResult && state.ErrorMessage() != "" {
			t.Fatalf("state %s carries both result and error", state.Phase())
		}
	}

	if !model.Pending().Pending() || model.Failed("x").Pending() {
		t.Fatalf("pending flag mismatch")
	}
	if got, ok := model.Succeeded(result).Result(); !ok || got.PredictedClass != "mel" {
		t.Fatalf("expected result to round-trip, got %+v", got)
	}
	if model.Failed("boom").ErrorMessage() != "boom" {
		t.Fatalf("expected failure message")
	}
	if (model.SubmissionState{}).Phase() != model.PhaseIdle {
		t.Fatalf("zero value should be idle")
	}
}

func TestLocalizationLabels(t *testing.T) {
	if got := len(model.LocalizationOptions); got != 15 {
		t.Fatalf("expected 15 localizations, got %d", got)
	}
	want := model.Option{Value: "lower extremity", Label: "Lower extremity"}
	if diff := cmp.Diff(want, model.LocalizationOptions[9]); diff != "" {
		t.Fatalf("label mismatch (-want +got):\n%s", diff)
	}
}
