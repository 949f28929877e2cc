package mocks

import "github.com/stretchr/testify/mock"

// MockSecureStorage is a mock implementation of the storage.SecureStorage interface
type MockSecureStorage struct {
	mock.Mock
}

func (m *MockSecureStorage) GetItem(key string) (string, bool, error) {
	args := m.Called(key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockSecureStorage) SetItem(key, value string) error {
	args := m.Called(key, value)
	return args.Error(0)
}

func (m *MockSecureStorage) RemoveItem(key string) error {
	args := m.Called(key)
	return args.Error(0)
}
