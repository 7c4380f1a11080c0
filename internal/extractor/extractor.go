// Package extractor implements C4: pulling values out of a response and
// writing them into a worker's variable store. Header extractors run
// before body extractors; the body is read to a string at most once, and
// only when at least one body extractor is present.
package extractor

import (
	"encoding/xml"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/forgewave/bombard/internal/model"
)

// Run applies every extractor in order against resp, writing matches into
// vars. The response body is consumed; callers must not read resp.Body
// afterward. An extractor failure never aborts the run: it is logged and
// the corresponding variable is left untouched, except that a JSON-path
// pattern with no match sets the variable to the empty string.
func Run(resp *http.Response, extractors []model.Extractor, vars map[string]string, log *zap.Logger) {
	var body string

	needsBody := false
	for _, ex := range extractors {
		if ex.Source == model.SourceBody {
			needsBody = true
			break
		}
	}
	if needsBody && resp.Body != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Error("failed to read response body for extraction", zap.Error(err))
		} else {
			body = string(data)
		}
	}

	contentType := resp.Header.Get("Content-Type")

	for _, ex := range extractors {
		if ex.Source == model.SourceHeaders {
			extractFromHeaders(resp.Header, ex, vars, log)
			continue
		}
	}
	for _, ex := range extractors {
		if ex.Source == model.SourceBody {
			extractFromBody(body, contentType, ex, vars, log)
		}
	}
}

func extractFromHeaders(headers http.Header, ex model.Extractor, vars map[string]string, log *zap.Logger) {
	for _, b := range ex.Bindings {
		value := headers.Get(b.Pattern)
		if value == "" {
			log.Warn("header extractor found no value", zap.String("header", b.Pattern), zap.String("variable", b.Name))
			continue
		}
		vars[b.Name] = value
	}
}

func extractFromBody(body, contentType string, ex model.Extractor, vars map[string]string, log *zap.Logger) {
	switch ex.Kind {
	case model.KindJSONPath:
		if !strings.Contains(strings.ToLower(contentType), "json") {
			log.Error("skipping JsonPath extractor: response content-type is not json", zap.String("content_type", contentType))
			return
		}
		extractJSONPath(body, ex, vars, log)
	case model.KindXPath:
		lower := strings.ToLower(contentType)
		if !strings.Contains(lower, "xml") && !strings.Contains(lower, "html") {
			log.Error("skipping Xpath extractor: response content-type is not xml/html", zap.String("content_type", contentType))
			return
		}
		extractXPath(body, ex, vars, log)
	case model.KindRegex:
		extractRegex(body, ex, vars, log)
	default:
		log.Error("body extractor has invalid kind None", zap.String("source", string(ex.Source)))
	}
}

func extractJSONPath(body string, ex model.Extractor, vars map[string]string, log *zap.Logger) {
	for _, b := range ex.Bindings {
		result := gjson.Get(body, b.Pattern)
		if !result.Exists() {
			log.Error("JsonPath extractor found no match", zap.String("pattern", b.Pattern), zap.String("variable", b.Name))
			vars[b.Name] = ""
			continue
		}
		vars[b.Name] = result.String()
	}
}

// looksLikeHTML decides which parser extractXPath reaches for. The x/net/html
// tokenizer is lenient enough to walk well-formed XML too, but for
// non-HTML bodies xmlTextByTag is used instead since it respects XML's
// stricter self-closing and namespace rules.
func looksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype")
}

func extractXPath(body string, ex model.Extractor, vars map[string]string, log *zap.Logger) {
	if looksLikeHTML(body) {
		root, err := html.Parse(strings.NewReader(body))
		if err != nil {
			log.Error("failed to parse body for Xpath extraction", zap.Error(err))
			return
		}
		for _, b := range ex.Bindings {
			matches := findByPath(root, b.Pattern)
			if len(matches) == 0 {
				log.Error("Xpath extractor found no match", zap.String("pattern", b.Pattern), zap.String("variable", b.Name))
				continue
			}
			if len(matches) > 1 {
				log.Warn("Xpath extractor matched multiple nodes, keeping first", zap.String("pattern", b.Pattern), zap.Int("count", len(matches)))
			}
			vars[b.Name] = textContent(matches[0])
		}
		return
	}

	for _, b := range ex.Bindings {
		values, err := xmlTextByTag(body, b.Pattern)
		if err != nil {
			log.Error("failed to parse body for Xpath extraction", zap.Error(err))
			return
		}
		if len(values) == 0 {
			log.Error("Xpath extractor found no match", zap.String("pattern", b.Pattern), zap.String("variable", b.Name))
			continue
		}
		if len(values) > 1 {
			log.Warn("Xpath extractor matched multiple nodes, keeping first", zap.String("pattern", b.Pattern), zap.Int("count", len(values)))
		}
		vars[b.Name] = values[0]
	}
}

// findByPath walks the tree collecting elements whose tag name equals the
// last slash-separated segment of pattern. This supports the common
// "//tag" and "/a/b/tag" shapes without pulling in a full XPath engine,
// which no example in the corpus provides.
func findByPath(root *html.Node, pattern string) []*html.Node {
	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	tag := segments[len(segments)-1]

	var matches []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
			matches = append(matches, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return matches
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// xmlTextByTag returns the character data of every element named tag
// (the last segment of pattern), in document order.
func xmlTextByTag(body, pattern string) ([]string, error) {
	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	tag := segments[len(segments)-1]

	decoder := xml.NewDecoder(strings.NewReader(body))
	var matches []string
	depth := -1
	var current strings.Builder
	inTarget := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == tag && !inTarget {
				inTarget = true
				depth = 0
				current.Reset()
			} else if inTarget {
				depth++
			}
		case xml.CharData:
			if inTarget {
				current.Write(t)
			}
		case xml.EndElement:
			if inTarget {
				if depth == 0 {
					matches = append(matches, strings.TrimSpace(current.String()))
					inTarget = false
				} else {
					depth--
				}
			}
		}
	}
	return matches, nil
}

func extractRegex(body string, ex model.Extractor, vars map[string]string, log *zap.Logger) {
	for _, b := range ex.Bindings {
		re, err := regexp.Compile(b.Pattern)
		if err != nil {
			log.Error("invalid regex pattern", zap.String("pattern", b.Pattern), zap.Error(err))
			continue
		}
		match := re.FindStringSubmatch(body)
		if match == nil {
			log.Error("Regex extractor found no match", zap.String("pattern", b.Pattern), zap.String("variable", b.Name))
			continue
		}
		if len(match) > 1 {
			vars[b.Name] = match[1]
		} else {
			vars[b.Name] = match[0]
		}
	}
}
