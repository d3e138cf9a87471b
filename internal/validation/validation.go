package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator 返回进程共享的 validator 实例，字段名取自 json tag。
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
		instance = v
	})
	return instance
}

// FieldErrors 以字段路径（如 personalInfo.email、experience[0].endDate）为键的错误信息。
type FieldErrors map[string]string

// Fields returns the failing paths in a stable order.
func (fe FieldErrors) Fields() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Error 把 FieldErrors 作为 error 返回时使用。
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range e.Fields.Fields() {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsFieldErrors extracts field errors from err, or nil.
func AsFieldErrors(err error) FieldErrors {
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Fields
	}
	return nil
}

// Struct 校验结构体，返回 nil 表示通过。
func Struct(v any) FieldErrors {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		path := trimRoot(fe.Namespace())
		if _, exists := out[path]; exists {
			continue
		}
		out[path] = message(fe)
	}
	return out
}

// Check wraps Struct as an error.
func Check(v any) error {
	if fields := Struct(v); len(fields) > 0 {
		return &Error{Fields: fields}
	}
	return nil
}

// trimRoot 去掉 Namespace 中的顶层类型名。
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "required_unless":
		return "End date is required unless this is current"
	case "email":
		return "Invalid email address"
	case "url":
		return "Invalid URL"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	}
	return "Invalid value"
}
