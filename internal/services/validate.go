package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	httpURLRe    = regexp.MustCompile(`^https?://.+`)
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return httpURLRe.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("imageref", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return httpURLRe.MatchString(value) || (strings.HasPrefix(value, "/") && len(value) > 1)
		})
		_ = v.RegisterValidation("linkref", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return value == "" || value == "#" || httpURLRe.MatchString(value)
		})
		validate = v
	})
	return validate
}

// check trims every string field of the struct pointed to by v and then
// validates it.
func check(v any) error {
	trimStrings(reflect.ValueOf(v))
	if err := getValidator().Struct(v); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			return ErrValidationFields(describe(invalid))
		}
		return err
	}
	return nil
}

func trimStrings(v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			trimStrings(v.Elem())
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				trimStrings(v.Field(i))
			}
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			trimStrings(v.Index(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(strings.TrimSpace(v.String()))
		}
	}
}

func describe(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	label := humanize(fe.Field())
	text := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "Please provide " + strings.ToLower(label)
	case "min":
		if text {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if text {
			return fmt.Sprintf("%s cannot be more than %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s cannot be more than %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Fields(fe.Param()), ", "))
	case "email":
		return "Please provide a valid email"
	case "httpurl", "imageref", "linkref":
		return fmt.Sprintf("Please provide a valid URL for %s", strings.ToLower(label))
	}
	return fmt.Sprintf("%s is invalid", label)
}

// humanize turns a JSON field name such as "googleDriveLink" into
// "Google drive link".
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteString(strings.ToUpper(string(r)))
		case r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
