package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FieldName identifies a draft field. Values match the multipart field names
// of the prediction endpoint.
type FieldName string

const (
	FieldImage        FieldName = "image"
	FieldSex          FieldName = "sex"
	FieldDxType       FieldName = "dx_type"
	FieldLocalization FieldName = "localization"
	FieldAge          FieldName = "age"
)

// Fields lists the draft fields in form order.
var Fields = []FieldName{FieldImage, FieldSex, FieldDxType, FieldLocalization, FieldAge}

// ErrUnknownField is returned when an update targets a field the draft does not
// carry.
var ErrUnknownField = errors.New("model: unknown field")

// ImageFile references a user-selected image. ID is unique per selection and is
// the identity the preview staleness guard compares against; selecting the same
// file twice yields two identities.
type ImageFile struct {
	ID   string
	Name string
	Size int64

	open func() (io.ReadCloser, error)
}

// ImageFromBytes wraps an in-memory upload.
func ImageFromBytes(name string, data []byte) ImageFile {
	payload := append([]byte(nil), data...)
	return ImageFile{
		ID:   uuid.NewString(),
		Name: name,
		Size: int64(len(payload)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		},
	}
}

// ImageFromPath references a file on disk. The file is only read when opened.
func ImageFromPath(path string) (ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ImageFile{}, fmt.Errorf("model: stat image: %w", err)
	}
	if info.IsDir() {
		return ImageFile{}, fmt.Errorf("model: image %q is a directory", path)
	}
	return ImageFile{
		ID:   uuid.NewString(),
		Name: filepath.Base(path),
		Size: info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Open returns a fresh reader over the image contents.
func (f ImageFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, errors.New("model: image has no content")
	}
	return f.open()
}

// Draft is the user's in-progress input. Select fields and age hold the raw
// strings the user entered; nothing is coerced until the validation gate.
type Draft struct {
	Image        *ImageFile
	Sex          string
	DxType       string
	Localization string
	Age          string
}

// FieldUpdate describes a single user edit. Image is only consulted for
// FieldImage; a nil Image clears the selection.
type FieldUpdate struct {
	Field FieldName
	Value string
	Image *ImageFile
}

// SetField builds an update for a string field.
func SetField(field FieldName, value string) FieldUpdate {
	return FieldUpdate{Field: field, Value: value}
}

// SetImage builds an update selecting (or, with nil, clearing) the image.
func SetImage(image *ImageFile) FieldUpdate {
	return FieldUpdate{Field: FieldImage, Image: image}
}

// Apply returns a copy of the draft with the update applied.
func (d Draft) Apply(update FieldUpdate) (Draft, error) {
	next := d
	switch update.Field {
	case FieldImage:
		if update.Image == nil {
			next.Image = nil
		} else {
			image := *update.Image
			next.Image = &image
		}
	case FieldSex:
		next.Sex = update.Value
	case FieldDxType:
		next.DxType = update.Value
	case FieldLocalization:
		next.Localization = update.Value
	case FieldAge:
		next.Age = update.Value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, update.Field)
	}
	return next, nil
}

// ImageID returns the identity of the selected image, or "" when none is set.
func (d Draft) ImageID() string {
	if d.Image == nil {
		return ""
	}
	return d.Image.ID
}

// Value returns the raw string for a non-image field.
func (d Draft) Value(field FieldName) string {
	switch field {
	case FieldSex:
		return d.Sex
	case FieldDxType:
		return d.DxType
	case FieldLocalization:
		return d.Localization
	case FieldAge:
		return d.Age
	case FieldImage:
		if d.Image != nil {
			return d.Image.Name
		}
	}
	return ""
}

// ClassProbability pairs a class abbreviation with its probability.
type ClassProbability struct {
	Class string
	Value float64
}

// Probabilities keeps class probabilities in the order the service emitted
// them. It decodes from and encodes to a JSON object.
type Probabilities []ClassProbability

// UnmarshalJSON decodes a JSON object while preserving key order. A JSON null
// yields an empty list.
func (p *Probabilities) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("model: decode probabilities: %w", err)
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("model: decode probabilities: expected object, got %v", tok)
	}

	var out Probabilities
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("model: decode probabilities: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("model: decode probabilities: unexpected key %v", keyTok)
		}
		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("model: decode probability %q: %w", key, err)
		}
		out = append(out, ClassProbability{Class: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("model: decode probabilities: %w", err)
	}
	*p = out
	return nil
}

// MarshalJSON encodes the list as a JSON object in list order.
func (p Probabilities) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Class)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PredictionResult is the success payload of the prediction endpoint.
// PredictedClass is not checked against ClassNames.
type PredictionResult struct {
	PredictedClass     string        `json:"predicted_class"`
	ClassProbabilities Probabilities `json:"class_probabilities"`
}
