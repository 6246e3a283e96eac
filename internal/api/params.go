package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bazi/internal/errors"
)

// maxBodyBytes bounds request bodies; every body is a small JSON object.
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected so typos in birth specs do not pass silently.
func decodeJSON(r *http.Request, dst interface{}, code errors.ErrorCode) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.Newf(code, "request body is empty")
		}
		return errors.New(code, "malformed request body", err)
	}
	if dec.More() {
		return errors.Newf(code, "request body holds more than one JSON value")
	}
	return nil
}

// pathParts splits the path below prefix, e.g. "/cases/abc/chart" with
// prefix "/cases/" gives ["abc", "chart"].
func pathParts(r *http.Request, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// QueryParamInt extracts an integer query parameter with a default value
func QueryParamInt(r *http.Request, name string, defaultVal int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %w", name, err)
	}
	if i < 0 {
		return 0, fmt.Errorf("%s must be non-negative", name)
	}
	return i, nil
}

// QueryParamList splits a comma-separated query parameter.
func QueryParamList(r *http.Request, name string) []string {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(val, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
