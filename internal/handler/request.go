package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/wanderlust/backend/internal/auth"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/validation"
)

// pathParam binds the named chi URL parameter as a required simple-style
// path parameter.
func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return "", validation.Field(name, err.Error())
	}
	return v, nil
}

// pathParams binds several path parameters in order.
func pathParams(r *http.Request, names ...string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		v, err := pathParam(r, name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// queryInt binds an optional form-style integer query parameter.
func queryInt(r *http.Request, name string) (*int, error) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return nil, validation.Field(name, "must be an integer")
	}
	return v, nil
}

// queryString binds a required form-style string query parameter.
func queryString(r *http.Request, name string) (string, error) {
	var v string
	if err := runtime.BindQueryParameter("form", true, true, name, r.URL.Query(), &v); err != nil {
		return "", validation.Field(name, "is required")
	}
	return v, nil
}

// decodeJSON reads the request body into dst. A missing or malformed body is
// a validation error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is required", domain.ErrValidation)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrValidation, maxErr.Limit)
		default:
			return fmt.Errorf("%w: malformed JSON: %v", domain.ErrValidation, err)
		}
	}
	return nil
}

func session(r *http.Request) domain.Session {
	return auth.SessionFrom(r.Context())
}
