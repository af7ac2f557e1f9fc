package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "seo-writer-api/pkg/errors"
)

// RootPath 请求体整体无法解析时使用的路径
const RootPath = "(root)"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// normalizer 校验前把空白可选字段归一化为 nil
type normalizer interface {
	normalize()
}

// checker 字段标签无法表达的约束
type checker interface {
	check() []apperrors.FieldError
}

// Decode 解析并校验请求体；失败时返回 INVALID_INPUT，字段错误按声明顺序排列
func Decode(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return apperrors.InvalidInput([]apperrors.FieldError{{Path: RootPath, Message: "request body is required"}})
	}
	if err := json.Unmarshal(body, dst); err != nil {
		fe := decodeFieldError(err)
		if fe.Path == RootPath {
			return apperrors.InvalidInput([]apperrors.FieldError{fe})
		}
		// 类型错误不会中断解码，其余字段照常校验
		return apperrors.InvalidInput(mergeFieldErrors(dst, fe, Validate(dst)))
	}
	return Validate(dst)
}

// mergeFieldErrors 按结构体字段声明顺序合并类型错误与校验错误，同一路径只保留类型错误
func mergeFieldErrors(dst any, typeErr apperrors.FieldError, verr error) []apperrors.FieldError {
	fields := []apperrors.FieldError{typeErr}
	if verr != nil {
		for _, fe := range apperrors.AsAppError(verr).FieldErrors {
			if fe.Path != typeErr.Path {
				fields = append(fields, fe)
			}
		}
	}

	order := fieldOrder(dst)
	rank := func(path string) int {
		top := strings.SplitN(path, ".", 2)[0]
		if i, ok := order[top]; ok {
			return i
		}
		return len(order)
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return rank(fields[i].Path) < rank(fields[j].Path)
	})
	return fields
}

// fieldOrder JSON 字段名到声明位置的映射
func fieldOrder(dst any) map[string]int {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	order := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = t.Field(i).Name
		}
		order[name] = i
	}
	return order
}

// Validate 校验已解码的请求，纯函数，仅修改 dst 的可选字段
func Validate(dst any) error {
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}

	var fields []apperrors.FieldError
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperrors.InvalidInput([]apperrors.FieldError{{Path: RootPath, Message: err.Error()}})
		}
		for _, fe := range verrs {
			fields = append(fields, apperrors.FieldError{
				Path:    fe.Field(),
				Message: fieldMessage(fe),
			})
		}
	}
	if c, ok := dst.(checker); ok {
		fields = append(fields, c.check()...)
	}
	if len(fields) > 0 {
		return apperrors.InvalidInput(fields)
	}
	return nil
}

func decodeFieldError(err error) apperrors.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.FieldError{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("expected %s, got %s", expectedKind(typeErr.Type), typeErr.Value),
		}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return apperrors.FieldError{Path: RootPath, Message: "malformed JSON"}
	}
	if typeErr != nil {
		return apperrors.FieldError{Path: RootPath, Message: "expected a JSON object"}
	}
	return apperrors.FieldError{Path: RootPath, Message: "malformed JSON"}
}

func expectedKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Map {
			return "array of objects"
		}
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return expectedKind(t.Elem())
	default:
		return t.Kind().String()
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "must be a non-empty string"
	case "http_url":
		return "must be an absolute http(s) URL"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}

// optional 去除首尾空白，空串视为未提供
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
