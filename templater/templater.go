// Package templater renders fixed Jinja-style templates with pongo2.
package templater

import (
	"fmt"
	"maps"
	"sync"

	pongo2 "github.com/flosch/pongo2/v6"
	"github.com/sleeautomation/sitehooks/logger"
)

// Templater renders templates and caches the parsed form of each source
// string. It is safe for concurrent use.
type Templater struct {
	mu    sync.Mutex
	cache map[string]*pongo2.Template
}

// NewTemplater creates a new Templater.
func NewTemplater() *Templater {
	return &Templater{cache: make(map[string]*pongo2.Template)}
}

// Render renders an HTML template. Values are autoescaped.
func (t *Templater) Render(tmpl string, data map[string]any) (string, error) {
	return t.render(tmpl, data)
}

// RenderText renders a plain-text template with autoescaping turned off.
func (t *Templater) RenderText(tmpl string, data map[string]any) (string, error) {
	return t.render("{% autoescape off %}"+tmpl+"{% endautoescape %}", data)
}

func (t *Templater) render(tmpl string, data map[string]any) (string, error) {
	if data == nil {
		return "", fmt.Errorf("template data is nil")
	}
	tpl, err := t.compile(tmpl)
	if err != nil {
		return "", err
	}
	ctx := make(pongo2.Context, len(data))
	maps.Copy(ctx, data)
	logger.Debug("Templater.render: context keys = %v", contextKeys(ctx))
	return tpl.Execute(ctx)
}

func (t *Templater) compile(tmpl string) (*pongo2.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tpl, ok := t.cache[tmpl]; ok {
		return tpl, nil
	}
	tpl, err := pongo2.FromString(tmpl)
	if err != nil {
		return nil, err
	}
	t.cache[tmpl] = tpl
	return tpl, nil
}

func contextKeys(ctx pongo2.Context) []string {
	out := make([]string, 0, len(ctx))
	for k := range ctx {
		out = append(out, k)
	}
	return out
}
