package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/chillbuddy/backend-go/internal/errors"
)

// ValidationError 验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidationErrors 多个验证错误
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validator 数据验证器
type Validator struct {
	errors ValidationErrors
}

// NewValidator 创建验证器
func NewValidator() *Validator {
	return &Validator{}
}

// Error 返回所有验证错误
func (v *Validator) Error() error {
	if len(v.errors) == 0 {
		return nil
	}
	return v.errors
}

// HasErrors 检查是否有验证错误
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// AddError 添加验证错误
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// Required 验证必填字段
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "cannot be empty")
	}
	return v
}

// MaxLength 验证最大长度
func (v *Validator) MaxLength(field, value string, maxLen int) *Validator {
	if utf8.RuneCountInString(value) > maxLen {
		v.AddError(field, fmt.Sprintf("cannot be longer than %d characters", maxLen))
	}
	return v
}

// ValidateMessage 校验入站消息。在风险评估之前执行，空消息或超长消息直接拒绝。
func ValidateMessage(content string, maxLength int) *apperrors.AppError {
	v := NewValidator()
	v.Required("message", content)
	v.MaxLength("message", content, maxLength)
	if v.HasErrors() {
		return apperrors.NewValidationError("Your message could not be processed: " + v.Error().Error())
	}
	return nil
}
