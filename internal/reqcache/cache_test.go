package reqcache

import (
	"io"
	"net/http"
	"testing"

	"github.com/forgewave/bombard/internal/model"
)

func TestConvertRawBody(t *testing.T) {
	tmpl := model.RequestTemplate{
		Method: "post",
		URL:    "http://example.com/widgets",
		Body:   model.Body{Raw: `{"id":1}`},
	}

	req, cacheable, err := Convert(tmpl)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if !cacheable {
		t.Error("raw body should be cacheable")
	}
	if req.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", req.Method)
	}
	data, _ := io.ReadAll(req.Body)
	if string(data) != `{"id":1}` {
		t.Errorf("unexpected body: %s", data)
	}
}

func TestConvertDefaultsToGET(t *testing.T) {
	req, _, err := Convert(model.RequestTemplate{URL: "http://example.com"})
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if req.Method != http.MethodGet {
		t.Errorf("expected GET default, got %s", req.Method)
	}
}

func TestConvertURLEncodedBody(t *testing.T) {
	tmpl := model.RequestTemplate{
		Method: "POST",
		URL:    "http://example.com/form",
		Body:   model.Body{URLEncoded: map[string]string{"a": "1"}},
	}
	req, cacheable, err := Convert(tmpl)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if !cacheable {
		t.Error("urlencoded body should be cacheable")
	}
	if req.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
		t.Errorf("unexpected content-type: %s", req.Header.Get("Content-Type"))
	}
}

func TestConvertMultipartNotCacheable(t *testing.T) {
	tmpl := model.RequestTemplate{
		Method: "POST",
		URL:    "http://example.com/upload",
		Body: model.Body{Form: []model.FormField{
			{Name: "title", Kind: model.FieldText, Value: "hello"},
		}},
	}
	_, cacheable, err := Convert(tmpl)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if cacheable {
		t.Error("multipart body must never be cacheable")
	}
}

func TestCacheGetReusesEntry(t *testing.T) {
	c := New()
	tmpl := model.RequestTemplate{ID: "tmpl-1", Method: "GET", URL: "http://example.com/x"}

	req1, err := c.Get(tmpl)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	req2, err := c.Get(tmpl)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if req1 == req2 {
		t.Error("Get should return distinct clones, not the same pointer")
	}
	if req2.URL.String() != "http://example.com/x" {
		t.Errorf("unexpected URL on cached clone: %s", req2.URL)
	}
}

func TestCacheBypassesForPreprocessing(t *testing.T) {
	c := New()
	tmpl := model.RequestTemplate{
		ID:                    "tmpl-2",
		Method:                "GET",
		URL:                   "http://example.com/y",
		RequiresPreprocessing: true,
	}
	if _, err := c.Get(tmpl); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	c.mu.Lock()
	_, cached := c.entries[tmpl.ID]
	c.mu.Unlock()
	if cached {
		t.Error("preprocessing templates must never be cached")
	}
}
