// Package reqcache implements C2: converting a request template into a
// wire-ready *http.Request, and caching those conversions for templates that
// never need per-iteration substitution.
package reqcache

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/forgewave/bombard/internal/model"
)

// Convert assembles method, URL, headers and body from template. Body
// policy, in order: raw if non-empty, else multipart form if non-empty,
// else urlencoded if non-empty, else no body. This mirrors
// original_source's converter.rs ordering.
//
// The returned request's GetBody is populated whenever the body is a
// plain byte buffer, making it safe to Clone for cache hits. Multipart
// bodies are never given a GetBody — their boundary is single-use — so
// Cacheable reports false for them and the cache layer must rebuild on
// every call.
func Convert(template model.RequestTemplate) (req *http.Request, cacheable bool, err error) {
	method := strings.ToUpper(template.Method)
	if method == "" {
		method = http.MethodGet
	}

	var bodyBytes []byte
	contentType := ""
	cacheable = true

	switch {
	case template.Body.Raw != "":
		bodyBytes = []byte(template.Body.Raw)
	case len(template.Body.Form) > 0:
		bodyBytes, contentType, err = buildMultipart(template.Body.Form)
		if err != nil {
			return nil, false, fmt.Errorf("%w: building multipart body: %v", model.ErrConfigInvalid, err)
		}
		cacheable = false
	case len(template.Body.URLEncoded) > 0:
		bodyBytes = []byte(buildURLEncoded(template.Body.URLEncoded))
		contentType = "application/x-www-form-urlencoded"
	}

	req, err = http.NewRequest(method, template.URL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", model.ErrConfigInvalid, err)
	}

	for name, value := range template.Headers {
		req.Header.Set(name, value)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	if cacheable {
		buf := bodyBytes
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		}
	}

	return req, cacheable, nil
}

func buildURLEncoded(fields map[string]string) string {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	return values.Encode()
}

// buildMultipart assembles a multipart/form-data body. Text fields become
// text parts; file fields read file contents from disk, with filename set
// to the last path segment and mime defaulting to
// "application/octet-stream" when not declared.
func buildMultipart(fields []model.FormField) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range fields {
		switch f.Kind {
		case model.FieldFile:
			data, err := os.ReadFile(f.Value)
			if err != nil {
				return nil, "", fmt.Errorf("reading file field %q: %w", f.Name, err)
			}
			mime := f.Mime
			if mime == "" {
				mime = "application/octet-stream"
			}
			filename := path.Base(f.Value)
			part, err := createFilePart(writer, f.Name, filename, mime)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(data); err != nil {
				return nil, "", err
			}
		default:
			if err := writer.WriteField(f.Name, f.Value); err != nil {
				return nil, "", err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func createFilePart(writer *multipart.Writer, fieldName, filename, mimeType string) (io.Writer, error) {
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, filename)}
	header["Content-Type"] = []string{mimeType}
	return writer.CreatePart(header)
}
