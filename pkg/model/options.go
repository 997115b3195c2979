package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Option is a select choice with its wire value and display label.
type Option struct {
	Value string
	Label string
}

// SexOptions lists the accepted values for FieldSex.
var SexOptions = []Option{
	{Value: "male", Label: "Male"},
	{Value: "female", Label: "Female"},
	{Value: "unknown", Label: "Unknown"},
}

// DxTypeOptions lists the accepted values for FieldDxType.
var DxTypeOptions = []Option{
	{Value: "confocal", Label: "Confocal"},
	{Value: "consensus", Label: "Consensus"},
	{Value: "follow_up", Label: "Follow-up"},
	{Value: "histo", Label: "Histopathology"},
}

var localizations = []string{
	"abdomen", "acral", "back", "chest", "ear", "face", "foot", "genital",
	"hand", "lower extremity", "neck", "scalp", "trunk", "unknown", "upper extremity",
}

// LocalizationOptions lists the accepted body sites. Labels only upper-case the
// first letter ("Lower extremity").
var LocalizationOptions = buildLocalizationOptions(localizations)

func buildLocalizationOptions(values []string) []Option {
	out := make([]Option, 0, len(values))
	for _, value := range values {
		out = append(out, Option{Value: value, Label: capitalizeFirst(value)})
	}
	return out
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// OptionsFor returns the catalogue for a select field, or nil for free-form
// fields.
func OptionsFor(field FieldName) []Option {
	switch field {
	case FieldSex:
		return SexOptions
	case FieldDxType:
		return DxTypeOptions
	case FieldLocalization:
		return LocalizationOptions
	default:
		return nil
	}
}

// OptionValues returns the wire values of a catalogue in order.
func OptionValues(options []Option) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		out = append(out, opt.Value)
	}
	return out
}

// ClassNames maps class abbreviations to their full names.
var ClassNames = map[string]string{
	"mel":   "Melanoma",
	"nv":    "Melanocytic Nevus",
	"bcc":   "Basal Cell Carcinoma",
	"akiec": "Actinic Keratoses / Intraepithelial Carcinoma",
	"bkl":   "Benign Keratosis-like Lesion",
	"df":    "Dermatofibroma",
	"vasc":  "Vascular Skin Lesion",
}

// ClassOrder lists the known abbreviations in the order the model reports them.
var ClassOrder = []string{"akiec", "bcc", "bkl", "df", "mel", "nv", "vasc"}

// FieldLabel returns the form label for a field.
func FieldLabel(field FieldName) string {
	switch field {
	case FieldImage:
		return "Image"
	case FieldSex:
		return "Sex"
	case FieldDxType:
		return "Dx Type"
	case FieldLocalization:
		return "Localization"
	case FieldAge:
		return "Age"
	default:
		return strings.TrimSpace(string(field))
	}
}
