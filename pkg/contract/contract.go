// Package contract loads the OpenAPI description of the prediction endpoint
// and checks the form's field names and option catalogues against it.
package contract

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-lesionform/pkg/model"
)

const (
	// PredictPath is the endpoint path described by the contract.
	PredictPath = "/predict"

	multipartContent = "multipart/form-data"
)

// Field describes one multipart form field.
type Field struct {
	Name     string
	Type     string
	Format   string
	Enum     []string
	Required bool
}

// Contract is a loaded prediction endpoint description.
type Contract struct {
	doc    *openapi3.T
	fields []Field
}

// Load parses the embedded document.
func Load(ctx context.Context) (*Contract, error) {
	return LoadFromData(ctx, embeddedDocument)
}

// LoadFromData parses and validates an OpenAPI document that describes
// POST /predict with a multipart request body.
func LoadFromData(ctx context.Context, data []byte) (*Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("contract: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("contract: validate: %w", err)
	}

	fields, err := extractFields(doc)
	if err != nil {
		return nil, err
	}
	return &Contract{doc: doc, fields: fields}, nil
}

func extractFields(doc *openapi3.T) ([]Field, error) {
	if doc.Paths == nil {
		return nil, errors.New("contract: document does not contain any paths")
	}
	item := doc.Paths.Find(PredictPath)
	if item == nil || item.Post == nil {
		return nil, fmt.Errorf("contract: POST %s not described", PredictPath)
	}
	body := item.Post.RequestBody
	if body == nil || body.Value == nil {
		return nil, errors.New("contract: predict operation has no request body")
	}
	media := body.Value.Content.Get(multipartContent)
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, fmt.Errorf("contract: predict request is not %s", multipartContent)
	}
	schema := media.Schema.Value

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	fields := make([]Field, 0, len(schema.Properties))
	for name, prop := range schema.Properties {
		if prop == nil || prop.Value == nil {
			continue
		}
		field := Field{
			Name:   name,
			Format: prop.Value.Format,
		}
		if types := prop.Value.Type; types != nil && len(types.Slice()) > 0 {
			field.Type = types.Slice()[0]
		}
		for _, value := range prop.Value.Enum {
			field.Enum = append(field.Enum, fmt.Sprint(value))
		}
		_, field.Required = required[name]
		fields = append(fields, field)
	}

	sort.SliceStable(fields, func(i, j int) bool {
		return fieldRank(fields[i].Name) < fieldRank(fields[j].Name) ||
			(fieldRank(fields[i].Name) == fieldRank(fields[j].Name) && fields[i].Name < fields[j].Name)
	})
	return fields, nil
}

// fieldRank orders known form fields first, in form order.
func fieldRank(name string) int {
	for i, field := range model.Fields {
		if string(field) == name {
			return i
		}
	}
	return len(model.Fields)
}

// Fields returns the multipart fields, form fields first.
func (c *Contract) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Field looks up one multipart field by name.
func (c *Contract) Field(name string) (Field, bool) {
	for _, field := range c.fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Title reports the document title.
func (c *Contract) Title() string {
	if c.doc == nil || c.doc.Info == nil {
		return ""
	}
	return c.doc.Info.Title
}

// Verify reports every difference between the contract and the form: missing
// or optional form fields, and select catalogues whose values differ from the
// described enums.
func (c *Contract) Verify() error {
	var errs []error
	for _, name := range model.Fields {
		field, ok := c.Field(string(name))
		if !ok {
			errs = append(errs, fmt.Errorf("contract: field %q not described", name))
			continue
		}
		if !field.Required {
			errs = append(errs, fmt.Errorf("contract: field %q is not required", name))
		}
		options := model.OptionsFor(name)
		if options == nil {
			continue
		}
		if values := model.OptionValues(options); !slices.Equal(values, field.Enum) {
			errs = append(errs, fmt.Errorf("contract: field %q options %v do not match enum %v", name, values, field.Enum))
		}
	}
	return errors.Join(errs...)
}

// CheckValue reports whether value is acceptable for the named field: enum
// membership for selects, a positive number for age, non-empty otherwise.
func (c *Contract) CheckValue(name, value string) error {
	field, ok := c.Field(name)
	if !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	if strings.TrimSpace(value) == "" {
		if field.Required {
			return fmt.Errorf("missing field %q", name)
		}
		return nil
	}
	if len(field.Enum) > 0 && !slices.Contains(field.Enum, value) {
		return fmt.Errorf("invalid %s %q", name, value)
	}
	if field.Type == "number" || field.Type == "integer" {
		if _, ok := model.ParseAge(value); !ok {
			return fmt.Errorf("invalid %s %q", name, value)
		}
	}
	return nil
}
