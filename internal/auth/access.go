package auth

import (
	"context"
	"errors"

	"github.com/chillbuddy/backend-go/internal/interfaces"
	"gorm.io/gorm"
)

// storeAccessValidator 基于会话归属关系的访问校验实现
type storeAccessValidator struct {
	store interfaces.ConversationStore
}

// NewAccessValidator 创建访问校验器
func NewAccessValidator(store interfaces.ConversationStore) interfaces.AccessValidator {
	return &storeAccessValidator{store: store}
}

// ValidateAccess 校验用户是否拥有目标会话。会话不存在按无权限处理。
func (v *storeAccessValidator) ValidateAccess(ctx context.Context, userID, conversationID string) (bool, error) {
	conv, err := v.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return conv.UserID == userID, nil
}
