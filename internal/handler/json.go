package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/dukerupert/academy/internal/domain"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// NoContent writes status 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// bodyProperty names the request body as a whole in validation errors.
const bodyProperty = "body"

// Decode reads a single JSON object into dst and validates it. Every body
// that cannot be read into dst is a ValidationError (422), keyed on the
// offending field when it can be located and on "body" otherwise.
func Decode(r *http.Request, dst any) error {
	const op = "handler.decode"

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
		}
		return domain.NewValidationError(op, bodyProperty, "could not be read")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return domain.NewValidationError(op, bodyProperty, "is required")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return domain.NewValidationError(op, bodyProperty, "is not valid JSON")
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return domain.NewValidationError(op, typeErr.Field, "has the wrong type")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return domain.NewValidationError(op, field, "is not allowed")
		default:
			return domain.NewValidationError(op, invalidField(data, dst), "contains an invalid value")
		}
	}
	if dec.More() {
		return domain.NewValidationError(op, bodyProperty, "must contain a single JSON object")
	}
	return Validate(dst)
}

// invalidField finds the top-level key whose value fails to decode into a
// fresh value of dst's type. Errors raised by a field's UnmarshalText (e.g. a
// malformed UUID) carry no field name, so each key is tried on its own.
func invalidField(data []byte, dst any) string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return bodyProperty
	}
	t := reflect.TypeOf(dst)
	if t.Kind() != reflect.Pointer {
		return bodyProperty
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		single, err := json.Marshal(map[string]json.RawMessage{k: raw[k]})
		if err != nil {
			continue
		}
		if err := json.Unmarshal(single, reflect.New(t.Elem()).Interface()); err != nil {
			return k
		}
	}
	return bodyProperty
}
