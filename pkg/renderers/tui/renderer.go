package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-lesionform/pkg/render"
)

// TextName is the registry key of the plain-text renderer.
const TextName = "text"

// TextRenderer renders the outcome part of a View for terminals: the pending
// caption, an error line, or the predicted label with the probability table.
type TextRenderer struct{}

var _ render.Renderer = TextRenderer{}

// NewTextRenderer returns the plain-text renderer.
func NewTextRenderer() TextRenderer {
	return TextRenderer{}
}

func (TextRenderer) Name() string {
	return TextName
}

func (TextRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

func (TextRenderer) Render(ctx context.Context, view render.View) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	switch {
	case view.Pending:
		b.WriteString(view.SubmitCaption)
		b.WriteByte('\n')
	case view.Error != nil:
		icon := view.Error.Icon
		if icon == "" {
			icon = render.DefaultWarningIcon
		}
		fmt.Fprintf(&b, "%s %s\n", icon, view.Error.Message)
	case view.HasResult:
		fmt.Fprintf(&b, "Prediction: %s\n", view.ResultLabel)
		writeTable(&b, view.Rows)
	}
	return []byte(b.String()), nil
}

func writeTable(b *strings.Builder, rows []render.Row) {
	if len(rows) == 0 {
		return
	}
	width := utf8.RuneCountInString("Class")
	for _, row := range rows {
		if n := utf8.RuneCountInString(row.Label); n > width {
			width = n
		}
	}

	fmt.Fprintf(b, "  %s  %s\n", pad("Class", width), "Probability")
	for _, row := range rows {
		marker := " "
		if row.Predicted {
			marker = "*"
		}
		fmt.Fprintf(b, "%s %s  %7s\n", marker, pad(row.Label, width), row.Percent)
	}
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
