// Package substitution implements C3: resolving {{name}} tokens in a
// request template against the current data row. The approach mirrors
// original_source's parse/preprocessor.rs: serialize the whole template to
// JSON, replace each known token textually (escaping quotes in the
// replacement so the result stays valid JSON), then deserialize back into a
// template. This lets every field — headers, URL, body, regardless of
// nesting — go through one substitution pass instead of one per field.
package substitution

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/model"
)

// Resolve returns a copy of template with every {{name}} token replaced by
// its value in values. Identifiers referenced in the template but absent
// from values are left untouched and logged once at warn level.
//
// If template does not require preprocessing, it is returned unchanged
// without paying the JSON round-trip cost.
func Resolve(template model.RequestTemplate, values map[string]string, log *zap.Logger) (model.RequestTemplate, error) {
	if !template.RequiresPreprocessing {
		return template, nil
	}

	raw, err := json.Marshal(template)
	if err != nil {
		return template, fmt.Errorf("%w: serializing template for substitution: %v", model.ErrTemplateParse, err)
	}
	content := string(raw)

	if !strings.Contains(content, model.TemplateMarker) {
		return template, nil
	}

	for name, value := range values {
		token := "{{" + name + "}}"
		if !strings.Contains(content, token) {
			continue
		}
		escaped := strings.ReplaceAll(value, `"`, `\"`)
		content = strings.ReplaceAll(content, token, escaped)
	}

	if log != nil {
		for _, unresolved := range model.Identifiers(content) {
			log.Warn("unresolved substitution identifier", zap.String("identifier", unresolved), zap.String("template", template.Name))
		}
	}

	var resolved model.RequestTemplate
	if err := json.Unmarshal([]byte(content), &resolved); err != nil {
		if log != nil {
			log.Error("substitution produced invalid JSON, using unresolved template",
				zap.String("template", template.Name), zap.Error(err))
		}
		return template, nil
	}
	return resolved, nil
}
