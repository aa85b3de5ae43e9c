package supports

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists the failed fields of a model, keyed by JSON name.
type ValidationError struct {
	Model   string            `json:"model"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	errorJSON, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf("Model: %s, Message: %s, Errors: %v", e.Model, e.Message, e.Errors)
	}

	return string(errorJSON)
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	err := validate.RegisterValidation("confirmation", fieldConfirmation)
	if err != nil {
		log.Panic(err)
	}
}

// fieldConfirmation checks that a field equals its sibling named by the tag
// parameter, e.g. `validate:"confirmation=PasswordConfirmation"`.
func fieldConfirmation(fl validator.FieldLevel) bool {
	fieldValue := fl.Field().String()
	parent := fl.Parent()
	if parent.Kind() == reflect.Ptr {
		parent = parent.Elem()
	}

	confirmation := parent.FieldByName(fl.Param())
	if !confirmation.IsValid() {
		return false
	}

	return fieldValue == confirmation.String()
}

func getJSONFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}

	name := strings.Split(tag, ",")[0]
	if name == "-" || name == "" {
		return field.Name
	}

	return name
}

func getFieldJSONName(structType reflect.Type, fieldName string) string {
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}

	if field, ok := structType.FieldByName(fieldName); ok {
		return getJSONFieldName(field)
	}

	return fieldName
}

// Validate runs the `validate` struct tags of model.
func Validate(model any) error {
	errs := validate.Struct(model)
	if errs == nil {
		return nil
	}

	validationErrors, ok := errs.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("could not validate %T: %w", model, errs)
	}

	result := &ValidationError{
		Model:  reflect.TypeOf(model).String(),
		Errors: make(map[string]string, len(validationErrors)),
	}

	for index, err := range validationErrors {
		jsonFieldName := getFieldJSONName(reflect.TypeOf(model), err.StructField())
		result.Errors[jsonFieldName] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", jsonFieldName, err.Tag())
		if index == 0 {
			result.Message = result.Errors[jsonFieldName]
		}
	}

	return result
}
