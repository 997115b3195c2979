// Package html renders the classifier page as a server-side HTML document.
package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-lesionform/pkg/render"
	rendertemplate "github.com/goliatone/go-lesionform/pkg/render/template"
	"github.com/goliatone/go-lesionform/pkg/render/template/gotemplate"
)

// Name is the registry key of this renderer.
const Name = "html"

const pageTemplate = "templates/page.tmpl"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	selector         theme.ThemeSelector
	themeName        string
	themeVariant     string
	icon             string
	basePath         string
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = files
		}
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(dir string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(dir) == "" {
			return
		}
		cfg.templateFS = os.DirFS(dir)
	}
}

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTheme resolves the page theme through selector.
func WithTheme(selector theme.ThemeSelector, name, variant string) Option {
	return func(cfg *config) {
		if selector != nil {
			cfg.selector = selector
		}
		cfg.themeName = name
		cfg.themeVariant = variant
	}
}

// WithWarningIcon replaces the SVG shown beside error messages. The markup is
// sanitized; markup that sanitizes to nothing keeps the default.
func WithWarningIcon(markup string) Option {
	return func(cfg *config) {
		cfg.icon = markup
	}
}

// WithBasePath mounts the page's endpoints under prefix.
func WithBasePath(prefix string) Option {
	return func(cfg *config) {
		cfg.basePath = strings.TrimRight(strings.TrimSpace(prefix), "/")
	}
}

// Renderer draws render.View values with a pongo2 page template.
type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	theme      *theme.RendererConfig
	icon       string
	basePath   string
	stylesheet string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer. The theme is resolved once, here.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	engine := cfg.templateRenderer
	if engine == nil {
		built, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		engine = built
	}

	selector := cfg.selector
	if selector == nil {
		selector = NewManifestSelector()
	}
	selection, err := selector.Select(cfg.themeName, cfg.themeVariant)
	if err != nil {
		return nil, fmt.Errorf("html renderer: select theme: %w", err)
	}
	themeCfg := RendererConfig(selection)

	icon := SanitizeIcon(cfg.icon)
	if icon == "" {
		icon = SanitizeIcon(DefaultWarningIcon)
	}

	r := &Renderer{
		templates: engine,
		theme:     themeCfg,
		icon:      icon,
		basePath:  cfg.basePath,
	}
	if themeCfg != nil && themeCfg.AssetURL != nil {
		if url := themeCfg.AssetURL("stylesheet"); url != "" {
			r.stylesheet = cfg.basePath + url
		}
	}
	return r, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Theme returns the resolved theme configuration.
func (r *Renderer) Theme() *theme.RendererConfig {
	return r.theme
}

func (r *Renderer) Render(ctx context.Context, view render.View) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.templates == nil {
		return nil, errors.New("html renderer: template renderer is nil")
	}

	data := map[string]any{
		"view":       view,
		"theme":      r.themeContext(),
		"icon":       r.icon,
		"stylesheet": r.stylesheet,
		"routes": map[string]any{
			"fields":  r.basePath + "/fields/",
			"preview": r.basePath + "/preview",
			"predict": r.basePath + "/predict",
		},
	}

	out, err := r.templates.RenderTemplate(pageTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) themeContext() map[string]any {
	if r.theme == nil {
		return map[string]any{}
	}
	return map[string]any{
		"name":    r.theme.Theme,
		"variant": r.theme.Variant,
		"style":   cssVarsStyle(r.theme.CSSVars),
	}
}
