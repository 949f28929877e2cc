package mocks

import (
	"context"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockCardReader is a mock implementation of the flow.CardReader interface
type MockCardReader struct {
	mock.Mock
}

func (m *MockCardReader) Read(ctx context.Context, kind models.CardKind) error {
	args := m.Called(ctx, kind)
	return args.Error(0)
}

// MockDocumentSink is a mock implementation of the flow.DocumentSink interface
type MockDocumentSink struct {
	mock.Mock
}

func (m *MockDocumentSink) Deliver(ctx context.Context, appointmentID int, kind models.DocumentKind, data []byte) error {
	args := m.Called(ctx, appointmentID, kind, data)
	return args.Error(0)
}

// MockAuthenticator is a mock implementation of the flow.Authenticator interface
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) IsAuthenticated() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockAuthenticator) MACAddress(ctx context.Context) string {
	args := m.Called(ctx)
	return args.String(0)
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, code, mac string) error {
	args := m.Called(ctx, code, mac)
	return args.Error(0)
}
