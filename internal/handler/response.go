package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"attendance-tracker/internal/i18n"
	"attendance-tracker/internal/service"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR encoding response: %v", err)
	}
}

func msg(r *http.Request, id string) string {
	return i18n.T(r.Context(), id)
}

func writeMsg(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, map[string]string{"msg": msg(r, msgID)})
}

// errorResponse maps a service error to its status and message id.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "auth.invalid_token"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "auth.access_denied"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "attendance.not_found"
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		return http.StatusBadRequest, "attendance.already_checked_in"
	case errors.Is(err, service.ErrNoCheckIn):
		return http.StatusBadRequest, "attendance.no_check_in"
	case errors.Is(err, service.ErrAlreadyCheckedOut):
		return http.StatusBadRequest, "attendance.already_checked_out"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusBadRequest, "auth.email_taken"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, "auth.invalid_credentials"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "error.bad_request"
	}
	return http.StatusInternalServerError, "error.server"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msgID := errorResponse(err)
	body := map[string]string{"msg": msg(r, msgID)}
	switch status {
	case http.StatusInternalServerError:
		log.Printf("ERROR %s %s: %v", r.Method, r.URL.Path, err)
	case http.StatusBadRequest:
		if errors.Is(err, service.ErrValidation) {
			body["error"] = err.Error()
		}
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a request body into dst and runs its validate tags.
// Failures come back wrapped in service.ErrValidation.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %s", service.ErrValidation, formatBindingError(err))
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", service.ErrValidation, formatBindingError(err))
	}
	return nil
}

func formatBindingError(err error) string {
	if errors.Is(err, io.EOF) {
		return "request body is empty"
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("invalid JSON at byte offset %d", syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field '%s' should be of type %s", typeErr.Field, typeErr.Type.String())
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]string, 0, len(ve))
		for _, fe := range ve {
			out = append(out, formatFieldError(fe))
		}
		return strings.Join(out, ", ")
	}
	return err.Error()
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", fe.Field())
	case "email":
		return fmt.Sprintf("field '%s' must be a valid email", fe.Field())
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", fe.Field())
	case "min":
		return fmt.Sprintf("field '%s' must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of [%s]", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}
