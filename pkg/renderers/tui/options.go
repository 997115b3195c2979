package tui

import (
	"io"

	"github.com/goliatone/go-lesionform/pkg/model"
	"github.com/goliatone/go-lesionform/pkg/render"
)

// Theme holds message prefixes applied by the session.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// ImageLoader resolves an image path typed by the user.
type ImageLoader func(path string) (model.ImageFile, error)

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithOutput sets where the default survey driver prints messages.
func WithOutput(out io.Writer) Option {
	return func(s *Session) {
		if out != nil {
			s.out = out
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithImageLoader replaces model.ImageFromPath.
func WithImageLoader(loader ImageLoader) Option {
	return func(s *Session) {
		if loader != nil {
			s.loadImage = loader
		}
	}
}

// WithRenderer replaces the text renderer used for outcomes.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Session) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}
