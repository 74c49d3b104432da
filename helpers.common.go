package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"reflect"
	"sort"
	"strings"
)

type ContextKey string

const (
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
	UIDContextKey           ContextKey = "auth.uid"
)

// Limit of an accepted json request body.
const maxBodyBytes = 1 << 20

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(RequestNumberContextKey).(uint64); ok {
		return val
	}
	return 0
}

var errMissingBody = NewValidationError(FieldError{Field: "body", Constraint: "missing", Message: "request body is required"})

// decodeJSONObject reads exactly one json object from the request body and
// returns its members keyed by their exact names.
func decodeJSONObject(r *http.Request) (map[string]json.RawMessage, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, errMissingBody
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errMissingBody
		}
		return nil, NewValidationError(FieldError{Field: "body", Constraint: "json_invalid", Message: err.Error()})
	}
	if err := decoder.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return nil, NewValidationError(FieldError{Field: "body", Constraint: "json_invalid", Message: "unexpected data after the json object"})
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil || members == nil {
		return nil, NewValidationError(FieldError{Field: "body", Constraint: "model_attributes_type", Message: "should be a valid json object"})
	}
	return members, nil
}

// jsonFieldNames lists the exact json member names of the struct behind v.
func jsonFieldNames(v interface{}) []string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}

// bindJSONFields decodes into v only the members named exactly like its
// fields. encoding/json folds case on its own so other keys never reach it.
func bindJSONFields(members map[string]json.RawMessage, names []string, v interface{}) error {
	known := make(map[string]json.RawMessage, len(names))
	for _, name := range names {
		if value, ok := members[name]; ok {
			known[name] = value
		}
	}
	data, err := json.Marshal(known)
	if err != nil {
		return NewValidationError(FieldError{Field: "body", Constraint: "json_invalid", Message: err.Error()})
	}

	err = json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return NewValidationError(FieldError{
			Field:      typeErr.Field,
			Constraint: typeErr.Type.String() + "_type",
			Message:    "should be a valid " + typeErr.Type.String(),
		})
	}
	return NewValidationError(FieldError{Field: "body", Constraint: "json_invalid", Message: err.Error()})
}

// DecodeStrictJSON reads a single json object from the request body into v.
// Members which are not exactly a json field of v, wrong types and malformed
// bodies are reported as *ValidationError.
func DecodeStrictJSON(r *http.Request, v interface{}) error {
	members, err := decodeJSONObject(r)
	if err != nil {
		return err
	}
	names := jsonFieldNames(v)
	allowed := make(map[string]struct{}, len(names))
	for _, name := range names {
		allowed[name] = struct{}{}
	}
	var extra []string
	for key := range members {
		if _, ok := allowed[key]; !ok {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		fes := make([]FieldError, 0, len(extra))
		for _, key := range extra {
			fes = append(fes, FieldError{Field: key, Constraint: "extra_forbidden", Message: "extra inputs are not permitted"})
		}
		return NewValidationError(fes...)
	}
	return bindJSONFields(members, names, v)
}

// DecodeJSON reads a single json object from the request body into v.
// Unknown members are ignored but every json field of v must be present.
func DecodeJSON(r *http.Request, v interface{}) error {
	members, err := decodeJSONObject(r)
	if err != nil {
		return err
	}
	names := jsonFieldNames(v)
	var fes []FieldError
	for _, name := range names {
		if _, ok := members[name]; !ok {
			fes = append(fes, FieldError{Field: name, Constraint: "missing", Message: "field required"})
		}
	}
	if len(fes) > 0 {
		return NewValidationError(fes...)
	}
	return bindJSONFields(members, names, v)
}

// DecodeBookInput is a helper function to read the content of a book creation request.
func DecodeBookInput(r *http.Request, input *BookInput) error {
	return DecodeStrictJSON(r, input)
}

// DecodeLoginInput reads the credentials of a login request.
func DecodeLoginInput(r *http.Request, input *LoginInput) error {
	return DecodeJSON(r, input)
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result. This
// helps know if the App is running in a docker container or not.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
