package render

import "strings"

// ViewOption adjusts a View after it has been derived from state.
type ViewOption func(*View)

// WithTitle overrides the page heading.
func WithTitle(title string) ViewOption {
	return func(v *View) {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			v.Title = trimmed
		}
	}
}

// WithPreviewError records why the preview could not be produced.
func WithPreviewError(err error) ViewOption {
	return func(v *View) {
		if err != nil {
			v.PreviewError = err.Error()
		}
	}
}

// WithWarningIcon replaces the indicator used by error alerts.
func WithWarningIcon(icon string) ViewOption {
	return func(v *View) {
		if v.Error != nil && icon != "" {
			v.Error.Icon = icon
		}
	}
}
