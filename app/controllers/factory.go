package controllers

import (
	"go.uber.org/dig"

	"github.com/chillbuddy/backend-go/internal/safety"
	"github.com/chillbuddy/backend-go/internal/services"
)

// ControllerFactory 控制器工厂
type ControllerFactory struct {
	container *dig.Container
}

// NewControllerFactory 创建控制器工厂
func NewControllerFactory(container *dig.Container) *ControllerFactory {
	return &ControllerFactory{
		container: container,
	}
}

// CreateConversationController 创建会话控制器
func (f *ControllerFactory) CreateConversationController() (*ConversationController, error) {
	var convService *services.ConversationService

	err := f.container.Invoke(func(cs *services.ConversationService) {
		convService = cs
	})

	if err != nil {
		return nil, err
	}

	return NewConversationController(convService), nil
}

// CreateAdminController 创建管理控制器
func (f *ControllerFactory) CreateAdminController() (*AdminController, error) {
	var assessor *safety.RiskAssessor

	err := f.container.Invoke(func(ra *safety.RiskAssessor) {
		assessor = ra
	})

	if err != nil {
		return nil, err
	}

	return NewAdminController(assessor), nil
}
