package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"nyapix/internal/database"
	"nyapix/internal/logging"
	"nyapix/internal/media"
	"nyapix/internal/middleware"
	"nyapix/internal/search"
)

const (
	defaultMaxUploadSize = 512 << 20
	defaultPageSize      = 50
	maxPageSize          = 500
	defaultSearchLimit   = 10
	// maxJSONBody caps request bodies outside the upload endpoint.
	maxJSONBody = 1 << 20
)

var errBadRequest = errors.New("bad request")

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatus writes v with the given status code.
func writeJSONStatus(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, statusCode, map[string]string{"error": message})
}

// statusFor maps package sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, search.ErrInvalidRequest),
		errors.Is(err, database.ErrInvalidReference):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, search.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, search.ErrNotFound), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, media.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, media.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// writeError writes err with the status it maps to. Unexpected errors are
// logged and reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Error("%s %s [%s]: %v", r.Method, r.URL.Path, middleware.RequestIDFrom(r.Context()), err)
		writeJSONError(w, "Internal server error", status)
		return
	}
	writeJSONError(w, err.Error(), status)
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and reports the first
// failure as a bad request.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() == "" {
			return badRequest("%s is %s", fe.Field(), fe.Tag())
		}
		return badRequest("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

// decodeJSON reads a JSON request body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return badRequest("invalid request body: %v", err)
	}
	return validateStruct(v)
}

// pathID parses the named mux variable as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return n, nil
}

// pageParams reads page and size, capping size at maxPageSize.
func pageParams(r *http.Request) (page, size int, err error) {
	if page, err = queryInt(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if size, err = queryInt(r, "size", defaultPageSize); err != nil {
		return 0, 0, err
	}
	return page, min(size, maxPageSize), nil
}

// queryIDs collects the ids of a query parameter that may be repeated
// and may hold comma separated values: ?t=1&t=2,3.
func queryIDs(r *http.Request, name string) ([]int64, error) {
	ids := []int64{}
	for _, value := range r.URL.Query()[name] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%w: invalid id %q in %s", search.ErrInvalidRequest, part, name)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
