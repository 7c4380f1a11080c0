package substitution

import (
	"testing"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/model"
)

func TestResolveSkipsWhenNotFlagged(t *testing.T) {
	tmpl := model.RequestTemplate{Name: "x", URL: "http://example.com/{{id}}"}
	resolved, err := Resolve(tmpl, map[string]string{"id": "42"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolved.URL != tmpl.URL {
		t.Errorf("expected no substitution without RequiresPreprocessing, got %s", resolved.URL)
	}
}

func TestResolveSubstitutesURLAndBody(t *testing.T) {
	tmpl := model.RequestTemplate{
		Name:                  "create",
		Method:                "POST",
		URL:                   "http://example.com/users/{{id}}",
		RequiresPreprocessing: true,
		Body:                  model.Body{Raw: `{"name":"{{name}}"}`},
	}
	resolved, err := Resolve(tmpl, map[string]string{"id": "42", "name": "ada"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolved.URL != "http://example.com/users/42" {
		t.Errorf("unexpected URL: %s", resolved.URL)
	}
	if resolved.Body.Raw != `{"name":"ada"}` {
		t.Errorf("unexpected body: %s", resolved.Body.Raw)
	}
}

func TestResolveEscapesQuotesInValue(t *testing.T) {
	tmpl := model.RequestTemplate{
		Name:                  "create",
		RequiresPreprocessing: true,
		Body:                  model.Body{Raw: `{"name":"{{name}}"}`},
	}
	resolved, err := Resolve(tmpl, map[string]string{"name": `a"b`}, zap.NewNop())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolved.Body.Raw != `{"name":"a\"b"}` {
		t.Errorf("expected escaped quote, got %s", resolved.Body.Raw)
	}
}

func TestResolveLeavesUnknownIdentifierInPlace(t *testing.T) {
	tmpl := model.RequestTemplate{
		Name:                  "create",
		RequiresPreprocessing: true,
		URL:                   "http://example.com/{{missing}}",
	}
	resolved, err := Resolve(tmpl, map[string]string{"other": "1"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolved.URL != "http://example.com/{{missing}}" {
		t.Errorf("expected unresolved token preserved, got %s", resolved.URL)
	}
}
