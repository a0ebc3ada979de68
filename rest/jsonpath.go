package rest

import (
	"fmt"
	"strconv"
	"strings"
)

// jsonPath is a compiled path in jsonparser key form: object keys as-is,
// array indexes as "[n]". The empty path addresses the value itself.
type jsonPath struct {
	text string
	keys []string
}

func (p jsonPath) String() string { return p.text }

// compilePath compiles the supported JSONPath subset:
//
//	$            the value itself
//	$.name       object member
//	$['name']    object member, any characters but the quote
//	$[2]         array element
//
// A path without the leading "$" is taken as relative to the root
// ("items[0].id" is "$.items[0].id").
func compilePath(text string) (jsonPath, error) {
	p := strings.TrimSpace(text)
	switch {
	case p == "" || p == "$":
		return jsonPath{text: "$"}, nil
	case strings.HasPrefix(p, "$"):
		p = p[1:]
	case strings.HasPrefix(p, "["):
	default:
		p = "." + p
	}

	var keys []string
	for len(p) > 0 {
		switch p[0] {
		case '.':
			p = p[1:]
			end := strings.IndexAny(p, ".[")
			if end < 0 {
				end = len(p)
			}
			name := p[:end]
			if name == "" || name == "*" {
				return jsonPath{}, unsupportedPath(text)
			}
			keys = append(keys, name)
			p = p[end:]

		case '[':
			end := strings.IndexByte(p, ']')
			if end < 0 {
				return jsonPath{}, unsupportedPath(text)
			}
			inner := p[1:end]
			if n := len(inner); n >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[n-1] == inner[0] {
				name := inner[1 : n-1]
				if strings.ContainsAny(name, `'"`) {
					return jsonPath{}, unsupportedPath(text)
				}
				keys = append(keys, name)
			} else {
				idx, err := strconv.Atoi(inner)
				if err != nil || idx < 0 {
					return jsonPath{}, unsupportedPath(text)
				}
				keys = append(keys, "["+strconv.Itoa(idx)+"]")
			}
			p = p[end+1:]

		default:
			return jsonPath{}, unsupportedPath(text)
		}
	}
	return jsonPath{text: strings.TrimSpace(text), keys: keys}, nil
}

func unsupportedPath(text string) error {
	return &ConfigurationError{Err: fmt.Errorf("%w: %q", ErrUnsupportedPath, text)}
}
