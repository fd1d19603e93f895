package replicate

import (
	"bytes"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/sketch-relay/tools"
)

// Output is the result of a succeeded prediction. It is one of BytesOutput,
// URLOutput, ListOutput, FileOutput or UnknownOutput.
type Output interface {
	isOutput()
}

// BytesOutput carries the generated file inline.
type BytesOutput []byte

// URLOutput is a single URL pointing at the generated file.
type URLOutput string

// ListOutput is an ordered list of URLs.
type ListOutput []string

// FileOutput is a file object that exposes its URL.
type FileOutput struct {
	url string
}

// UnknownOutput holds any JSON shape the relay does not understand.
type UnknownOutput struct {
	Raw jsoniter.RawMessage
}

func NewFileOutput(url string) FileOutput {
	return FileOutput{url: url}
}

func (f FileOutput) URL() string { return f.url }

func (BytesOutput) isOutput()   {}
func (URLOutput) isOutput()     {}
func (ListOutput) isOutput()    {}
func (FileOutput) isOutput()    {}
func (UnknownOutput) isOutput() {}

// ParseOutput maps the JSON "output" field of a prediction onto Output.
// Strings holding a base64 data URL decode to BytesOutput.
func ParseOutput(raw jsoniter.RawMessage) (Output, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return UnknownOutput{Raw: raw}, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := jsoniter.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("parse output string: %w", err)
		}
		return fromString(s)
	case '[':
		var items []any
		if err := jsoniter.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("parse output list: %w", err)
		}
		urls := make([]string, 0, len(items))
		for _, item := range items {
			url, ok := urlOf(item)
			if !ok {
				return UnknownOutput{Raw: raw}, nil
			}
			urls = append(urls, url)
		}
		if len(urls) > 0 && tools.IsDataURL(urls[0]) {
			return fromString(urls[0])
		}
		return ListOutput(urls), nil
	case '{':
		var obj map[string]any
		if err := jsoniter.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("parse output object: %w", err)
		}
		url, ok := urlOf(obj)
		if !ok {
			return UnknownOutput{Raw: raw}, nil
		}
		if tools.IsDataURL(url) {
			return fromString(url)
		}
		return NewFileOutput(url), nil
	default:
		return UnknownOutput{Raw: raw}, nil
	}
}

func fromString(s string) (Output, error) {
	if !tools.IsDataURL(s) {
		return URLOutput(s), nil
	}
	data, _, err := tools.DecodeDataURL(s)
	if err != nil {
		return nil, err
	}
	return BytesOutput(data), nil
}

func urlOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]any:
		url, ok := t["url"].(string)
		return url, ok
	default:
		return "", false
	}
}
