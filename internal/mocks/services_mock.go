package mocks

import (
	"context"

	"github.com/benmeehan/kiosk-agent/internal/activity"
	"github.com/benmeehan/kiosk-agent/internal/flow"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockFlowDriver is a mock implementation of the services.FlowDriver interface
type MockFlowDriver struct {
	mock.Mock
}

func (m *MockFlowDriver) Dispatch(action flow.Action) error {
	args := m.Called(action)
	return args.Error(0)
}

func (m *MockFlowDriver) Subscribe(fn func(flow.Screen)) func() {
	args := m.Called(fn)
	return args.Get(0).(func())
}

func (m *MockFlowDriver) Current() flow.Screen {
	args := m.Called()
	return args.Get(0).(flow.Screen)
}

// MockActivityPublisher is a mock implementation of the services.ActivityPublisher interface
type MockActivityPublisher struct {
	mock.Mock
}

func (m *MockActivityPublisher) Publish(src activity.Source) {
	m.Called(src)
}

// MockAdminHandler is a mock implementation of the services.AdminHandler interface
type MockAdminHandler struct {
	mock.Mock
}

func (m *MockAdminHandler) Handle(ctx context.Context, event models.UIEvent) models.AdminResponse {
	args := m.Called(ctx, event)
	return args.Get(0).(models.AdminResponse)
}

// MockIdentitySource is a mock implementation of the services.IdentitySource interface
type MockIdentitySource struct {
	mock.Mock
}

func (m *MockIdentitySource) Identity() models.KioskIdentity {
	args := m.Called()
	return args.Get(0).(models.KioskIdentity)
}

// MockService is a mock implementation of the registry.Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Start() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockService) Stop() error {
	args := m.Called()
	return args.Error(0)
}

// MockHostMetrics is a mock implementation of the services.HostMetrics interface
type MockHostMetrics struct {
	mock.Mock
}

func (m *MockHostMetrics) Collect(ctx context.Context) map[string]models.MetricSample {
	args := m.Called(ctx)
	return args.Get(0).(map[string]models.MetricSample)
}
