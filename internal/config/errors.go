package config

import "fmt"

// FieldError 携带出错字段路径与原因，CLI 直接打印给用户。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}

// originField 拼出 Origin.xxx 形式的字段路径。
func originField(field string) string {
	return "Origin." + field
}
