// Package template renders Sprig-function pipeline expressions such as
// `{{ .VAR | default "fallback" }}` that appear inside workflow description
// text. Plain `{{ identifier }}` substitution (§4.E.7) is handled directly
// by internal/validator against raw text; this engine only takes over for
// the pipeline forms validator.Substitute cannot express with a regex.
package template

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders individual Go template expressions with Sprig's function
// map available, so a workflow author can write default-value or
// conditional pipelines inline in variable positions.
type Engine struct{}

// New creates a new template engine.
func New() *Engine {
	return &Engine{}
}

// RenderExpression renders a single `{{ ... }}` expression against vars,
// exposed to the expression as dotted fields (`.VAR`). The expression must
// be the entire input, e.g. `{{ .STORAGE | default "100GB" }}`.
func (e *Engine) RenderExpression(expr string, vars map[string]string) (string, error) {
	ctx := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		ctx[k] = v
	}

	tmpl, err := template.New("expr").Funcs(sprig.TxtFuncMap()).Parse(expr)
	if err != nil {
		return "", fmt.Errorf("invalid template expression %q: %w", expr, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("template expression %q failed: %w", expr, err)
	}
	return buf.String(), nil
}
