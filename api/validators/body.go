package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
)

var validate = newValidator()

var phonePattern = regexp.MustCompile(`^\+[0-9]{6,15}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// DecodeJSONBody decodes the request body into dest and runs struct
// validation. Every failure is a validation error rendered per field.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return decodeError(err)
	}
	return Struct(dest)
}

// Struct validates v against its validate tags.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// Var validates a single value against tag.
func Var(value any, tag string) bool {
	return validate.Var(value, tag) == nil
}

func decodeError(err error) *pkgerrors.Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return pkgerrors.Field(typeErr.Field, fmt.Sprintf("Expected %s.", typeErr.Type.String()))
	}
	if errors.Is(err, io.EOF) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Request body is required.")
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "JSON parse error.")
}

func formatValidationErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid request.")
	}
	fields := make([]pkgerrors.FieldError, 0, len(errs))
	for _, fieldErr := range errs {
		fields = append(fields, pkgerrors.FieldError{
			Field:   fieldPath(fieldErr.Namespace()),
			Message: validationMessage(fieldErr),
		})
	}
	return pkgerrors.Fields(fields...)
}

// fieldPath turns "MusicianInput.documents[0].document_url" into
// "documents.0.document_url".
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		namespace = namespace[idx+1:]
	}
	replacer := strings.NewReplacer("[", ".", "]", "")
	return replacer.Replace(namespace)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url", "http_url":
		return "Enter a valid URL."
	case "phone", "e164":
		return "Enter a valid phone number."
	case "uuid", "uuid4":
		return "Must be a valid UUID."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "min":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("Ensure this field has at least %s elements.", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("Ensure this field has no more than %s elements.", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt", "gte":
		if n, err := strconv.ParseFloat(fe.Param(), 64); err == nil && n == 0 && fe.Tag() == "gt" {
			return "Ensure this value is greater than 0."
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	}
	return "Invalid value."
}

func isCollection(kind reflect.Kind) bool {
	return kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map
}
