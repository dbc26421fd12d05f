// internal/service/renderer.go
package service

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{\{[^}]*\}\}`)

// Renderer substitutes {{var}} placeholders in email subjects and bodies.
// Values are inserted verbatim (bodies are raw HTML; callers own escaping)
// and are never recursively expanded. Tokens with no matching variable are
// stripped so template syntax never leaks into delivered email.
type Renderer struct{}

func (Renderer) Render(template string, variables map[string]string) string {
	if template == "" {
		return ""
	}

	// Single pass: values containing {{..}} are never re-resolved.
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		key := token[2 : len(token)-2]
		if value, ok := variables[key]; ok {
			return value
		}
		return ""
	})
}
