package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	instance *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = instance.RegisterValidation("myob_uid", isMyobUID)
	})
	return instance
}

// isMyobUID accepts an empty value; MYOB UIDs are GUIDs.
func isMyobUID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return IsUID(value)
}

func IsUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

func isStruct(s interface{}) bool {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	return v.Kind() == reflect.Struct
}

// Struct validates s and returns one error listing every failed field by its json name.
func Struct(s interface{}) error {
	if s == nil {
		return errors.New("validation input is nil")
	}
	if !isStruct(s) {
		return fmt.Errorf("validation input is not a struct: %T", s)
	}

	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fieldMessage(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", field)
	case "required_without":
		return fmt.Sprintf("field '%s' is required when '%s' is empty", field, fe.Param())
	case "email":
		return fmt.Sprintf("field '%s' must be a valid email", field)
	case "myob_uid":
		return fmt.Sprintf("field '%s' must be a MYOB UID", field)
	case "min", "gte":
		return fmt.Sprintf("field '%s' must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("field '%s' must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("field '%s' failed on '%s'", field, fe.Tag())
	}
}
