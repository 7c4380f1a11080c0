package model

import "fmt"

// ExtractSource names where an extractor reads from.
type ExtractSource string

const (
	SourceBody    ExtractSource = "body"
	SourceHeaders ExtractSource = "headers"
)

// ExtractKind names the extraction strategy.
type ExtractKind string

const (
	KindJSONPath ExtractKind = "JsonPath"
	KindXPath    ExtractKind = "Xpath"
	KindRegex    ExtractKind = "Regex"
	KindNone     ExtractKind = "None"
)

// Binding is one variable-name -> pattern pair within an extractor. Bindings
// are kept as an ordered slice, not a map, so evaluation order matches
// declaration order.
type Binding struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// Extractor reads values out of a response and writes them into a variable
// store. For Source==headers, Pattern is a header name and Kind defaults to
// None; for Source==body, Kind must not be None.
type Extractor struct {
	Source   ExtractSource `yaml:"source" json:"source"`
	Kind     ExtractKind   `yaml:"kind" json:"kind"`
	Bindings []Binding     `yaml:"bindings" json:"bindings"`
}

// Validate enforces the two invariants called out in the data model: body
// source cannot use None, and headers source cannot use JsonPath or Xpath.
func (e Extractor) Validate() error {
	if e.Source == SourceBody && e.Kind == KindNone {
		return fmt.Errorf("%w: body extractor cannot use kind None", ErrConfigInvalid)
	}
	if e.Source == SourceHeaders && (e.Kind == KindJSONPath || e.Kind == KindXPath) {
		return fmt.Errorf("%w: headers extractor cannot use kind %s", ErrConfigInvalid, e.Kind)
	}
	return nil
}
