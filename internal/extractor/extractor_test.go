package extractor

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/model"
)

func newResponse(body, contentType string, headers map[string]string) *http.Response {
	resp := &http.Response{
		Header: http.Header{},
		Body:   io.NopCloser(strings.NewReader(body)),
	}
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func TestRunExtractsJSONPath(t *testing.T) {
	resp := newResponse(`{"token":"abc123"}`, "application/json", nil)
	extractors := []model.Extractor{
		{Source: model.SourceBody, Kind: model.KindJSONPath, Bindings: []model.Binding{{Name: "token", Pattern: "token"}}},
	}
	vars := map[string]string{}
	Run(resp, extractors, vars, zap.NewNop())
	if vars["token"] != "abc123" {
		t.Errorf("expected token=abc123, got %q", vars["token"])
	}
}

func TestRunSkipsJSONPathOnWrongContentType(t *testing.T) {
	resp := newResponse(`{"token":"abc123"}`, "text/plain", nil)
	extractors := []model.Extractor{
		{Source: model.SourceBody, Kind: model.KindJSONPath, Bindings: []model.Binding{{Name: "token", Pattern: "token"}}},
	}
	vars := map[string]string{}
	Run(resp, extractors, vars, zap.NewNop())
	if _, ok := vars["token"]; ok {
		t.Error("expected no extraction for mismatched content-type")
	}
}

func TestRunExtractsHeader(t *testing.T) {
	resp := newResponse("", "", map[string]string{"X-Request-Id": "req-1"})
	extractors := []model.Extractor{
		{Source: model.SourceHeaders, Kind: model.KindNone, Bindings: []model.Binding{{Name: "reqID", Pattern: "X-Request-Id"}}},
	}
	vars := map[string]string{}
	Run(resp, extractors, vars, zap.NewNop())
	if vars["reqID"] != "req-1" {
		t.Errorf("expected reqID=req-1, got %q", vars["reqID"])
	}
}

func TestRunRegexCapturesGroup(t *testing.T) {
	resp := newResponse("session=xyz789;path=/", "text/plain", nil)
	extractors := []model.Extractor{
		{Source: model.SourceBody, Kind: model.KindRegex, Bindings: []model.Binding{{Name: "session", Pattern: `session=([a-z0-9]+)`}}},
	}
	vars := map[string]string{}
	Run(resp, extractors, vars, zap.NewNop())
	if vars["session"] != "xyz789" {
		t.Errorf("expected session=xyz789, got %q", vars["session"])
	}
}

func TestRunRegexNoMatchLeavesVariableUnset(t *testing.T) {
	resp := newResponse("nothing here", "text/plain", nil)
	extractors := []model.Extractor{
		{Source: model.SourceBody, Kind: model.KindRegex, Bindings: []model.Binding{{Name: "session", Pattern: `session=([a-z0-9]+)`}}},
	}
	vars := map[string]string{"session": "previous"}
	Run(resp, extractors, vars, zap.NewNop())
	if vars["session"] != "previous" {
		t.Errorf("expected variable left unchanged, got %q", vars["session"])
	}
}

func TestRunXPathExtractsHTMLText(t *testing.T) {
	body := `<html><body><span id="token">tok-1</span></body></html>`
	resp := newResponse(body, "text/html", nil)
	extractors := []model.Extractor{
		{Source: model.SourceBody, Kind: model.KindXPath, Bindings: []model.Binding{{Name: "token", Pattern: "//span"}}},
	}
	vars := map[string]string{}
	Run(resp, extractors, vars, zap.NewNop())
	if vars["token"] != "tok-1" {
		t.Errorf("expected token=tok-1, got %q", vars["token"])
	}
}

func TestRunXPathExtractsXMLText(t *testing.T) {
	body := `<?xml version="1.0"?><root><token>tok-2</token></root>`
	resp := newResponse(body, "application/xml", nil)
	extractors := []model.Extractor{
		{Source: model.SourceBody, Kind: model.KindXPath, Bindings: []model.Binding{{Name: "token", Pattern: "//token"}}},
	}
	vars := map[string]string{}
	Run(resp, extractors, vars, zap.NewNop())
	if vars["token"] != "tok-2" {
		t.Errorf("expected token=tok-2, got %q", vars["token"])
	}
}
