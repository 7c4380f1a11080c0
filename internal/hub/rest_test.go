package hub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *Hub) {
	t.Helper()
	h := newTestHub(t)
	r := gin.New()
	r.POST("/bombardier/v1/bombard", h.Bombard)
	r.GET("/bombardier/v1/nodes", h.Nodes)
	r.POST("/bombardier/v1/stop", h.Stop)
	return r, h
}

func multipartBody(t *testing.T, parts map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for field, content := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s.yaml"`, field, field))
		header.Set("Content-Type", "application/yaml")
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("creating form part %q: %v", field, err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("writing form part %q: %v", field, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

const testConfigYAML = "thread_count: 1\niterations: 1\nramp_up_time: 1\n"
const testScenariosYAML = "version: \"1\"\nscenarios:\n  - name: smoke\n    requests:\n      - name: ping\n        url: https://example.com/ping\n        method: GET\n"

func TestBombardReturns409WhenNoNodesRegistered(t *testing.T) {
	router, _ := newTestRouter(t)
	body, contentType := multipartBody(t, map[string]string{
		"config":    testConfigYAML,
		"scenarios": testScenariosYAML,
	})

	req := httptest.NewRequest(http.MethodPost, "/bombardier/v1/bombard", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusConflict, rec.Body.String())
	}
}

func TestBombardReturns400OnMissingScenariosPart(t *testing.T) {
	router, _ := newTestRouter(t)
	body, contentType := multipartBody(t, map[string]string{
		"config": testConfigYAML,
	})

	req := httptest.NewRequest(http.MethodPost, "/bombardier/v1/bombard", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestBombardDispatchesToRegisteredNode(t *testing.T) {
	router, h := newTestRouter(t)
	send := h.registry.Register("node-1")

	body, contentType := multipartBody(t, map[string]string{
		"config":    testConfigYAML,
		"scenarios": testScenariosYAML,
	})

	req := httptest.NewRequest(http.MethodPost, "/bombardier/v1/bombard", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["job_id"] == "" {
		t.Error("expected a non-empty job_id in the response")
	}

	select {
	case <-send:
	default:
		t.Error("expected the registered node to have received the dispatched job")
	}
}

func TestNodesReportsRegistryCounts(t *testing.T) {
	router, h := newTestRouter(t)
	h.registry.Register("node-1")
	h.registry.Register("node-2")

	req := httptest.NewRequest(http.MethodGet, "/bombardier/v1/nodes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["available"] != 2 || resp["bombarding"] != 0 {
		t.Errorf("nodes response = %v, want available=2 bombarding=0", resp)
	}
}

func TestStopWithNoActiveJobReturnsFalse(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/bombardier/v1/stop", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["stopped"] != false {
		t.Errorf("stop response = %v, want stopped=false", resp)
	}
}
