package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockFileOperations is a mock implementation of the FileOperations interface
type MockFileOperations struct {
	mock.Mock
}

func (m *MockFileOperations) IsFileExists(filePath string) (bool, error) {
	args := m.Called(filePath)
	return args.Bool(0), args.Error(1)
}

func (m *MockFileOperations) EnsureDir(dirPath string) error {
	args := m.Called(dirPath)
	return args.Error(0)
}

func (m *MockFileOperations) ReadFile(filePath string) (string, error) {
	args := m.Called(filePath)
	return args.String(0), args.Error(1)
}

func (m *MockFileOperations) ReadFileRaw(filePath string) ([]byte, error) {
	args := m.Called(filePath)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockFileOperations) ReadYamlFile(filePath string, v any) error {
	args := m.Called(filePath, v)
	return args.Error(0)
}

func (m *MockFileOperations) WriteFileRaw(filePath string, data []byte) error {
	args := m.Called(filePath, data)
	return args.Error(0)
}

func (m *MockFileOperations) GetFileHash(filePath string) (string, error) {
	args := m.Called(filePath)
	return args.String(0), args.Error(1)
}
