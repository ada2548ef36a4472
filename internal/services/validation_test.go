package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chillbuddy/backend-go/internal/errors"
)

func TestValidateMessage(t *testing.T) {
	assert.Nil(t, ValidateMessage("I had a rough day", 5000))

	err := ValidateMessage("", 5000)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, err.Code)

	// 纯空白等同于空消息
	err = ValidateMessage("   \n\t", 5000)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, err.Code)

	err = ValidateMessage(strings.Repeat("a", 5001), 5000)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "5000 characters")

	// 长度按字符而非字节计算
	assert.Nil(t, ValidateMessage(strings.Repeat("好", 5000), 5000))
}

func TestValidator_CollectsMultipleErrors(t *testing.T) {
	v := NewValidator()
	v.Required("title", "  ").MaxLength("content", strings.Repeat("x", 11), 10)

	require.True(t, v.HasErrors())
	err := v.Error()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
	assert.Contains(t, err.Error(), "content")
}

func TestValidator_NoErrors(t *testing.T) {
	v := NewValidator()
	v.Required("title", "hello").MaxLength("title", "hello", 10)

	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
}
