package mocks

import (
	"context"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of the gateway.Gateway interface
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ValidateCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockGateway) LookupAppointment(ctx context.Context, code string) (*models.PatientInfo, error) {
	args := m.Called(ctx, code)
	patient, _ := args.Get(0).(*models.PatientInfo)
	return patient, args.Error(1)
}

func (m *MockGateway) SearchByPersonalInfo(ctx context.Context, search models.PersonalSearch) (string, error) {
	args := m.Called(ctx, search)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) BindKioskMAC(ctx context.Context, code, mac string) error {
	args := m.Called(ctx, code, mac)
	return args.Error(0)
}

func (m *MockGateway) SendToWaitingRoom(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockGateway) FetchDocument(ctx context.Context, appointmentID int, kind models.DocumentKind) ([]byte, error) {
	args := m.Called(ctx, appointmentID, kind)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockGateway) KioskStatus(ctx context.Context, code string) (*models.KioskStatus, error) {
	args := m.Called(ctx, code)
	status, _ := args.Get(0).(*models.KioskStatus)
	return status, args.Error(1)
}
