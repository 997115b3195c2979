package render

import (
	"context"
)

// Renderer turns a page View into bytes (an HTML document, a plain-text
// report, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View) ([]byte, error)
}
