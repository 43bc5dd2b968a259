package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

// errBadBody is returned for request bodies that are not a JSON object.
var errBadBody = errors.New("corps JSON invalide")

// params holds request parameters merged from the query string and the JSON
// body. A body of the form {"params": {...}} is unwrapped first.
type params map[string]any

func readParams(r *http.Request) (params, error) {
	p := params{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			p[k] = v[0]
		}
	}
	if r.Body == nil {
		return p, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return p, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	if inner, ok := body["params"].(map[string]any); ok {
		body = inner
	}
	for k, v := range body {
		p[k] = v
	}
	return p, nil
}

// String renders scalar values as text; absent and null values are "".
func (p params) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns def for absent, non-numeric or non-positive values.
func (p params) Int(key string, def int) int {
	n, err := strconv.Atoi(p.String(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Offset is Int without the positivity rule.
func (p params) Offset(key string) int {
	n, err := strconv.Atoi(p.String(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Bool accepts JSON booleans and the usual truthy strings.
func (p params) Bool(key string) bool {
	switch strings.ToLower(p.String(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
