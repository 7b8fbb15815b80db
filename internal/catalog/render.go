package catalog

import "fmt"

// RenderTemplate substitutes {slot} placeholders with the given argument
// values. Only declared placeholders are replaced - load-time validation
// guarantees every placeholder is a schema key, so the rendered string can
// contain nothing but the template literal and validated argument values.
// A slot that is absent from args renders as an empty string.
func RenderTemplate(tpl string, args map[string]interface{}) string {
	return placeholderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := args[name]
		if !ok {
			return ""
		}
		return fmt.Sprint(v)
	})
}
