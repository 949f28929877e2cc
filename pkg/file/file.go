package file

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileOperations defines the file system access used by the kiosk agent.
type FileOperations interface {
	IsFileExists(filePath string) (bool, error)
	EnsureDir(dirPath string) error
	ReadFile(filePath string) (string, error)
	ReadFileRaw(filePath string) ([]byte, error)
	ReadYamlFile(filePath string, v any) error
	WriteFileRaw(filePath string, data []byte) error
	GetFileHash(filePath string) (string, error)
}

// FileService implements FileOperations on top of the local file system.
type FileService struct{}

// NewFileService creates a new instance of FileService.
func NewFileService() *FileService {
	return &FileService{}
}

// IsFileExists reports whether filePath exists.
func (fs *FileService) IsFileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}

	// err != nil here means a permission or I/O problem, not absence
	return err == nil, err
}

// EnsureDir creates dirPath and its parents if they are missing.
func (fs *FileService) EnsureDir(dirPath string) error {
	if dirPath == "" || dirPath == "." {
		return nil
	}
	return os.MkdirAll(dirPath, 0700)
}

// ReadFile returns the content of filePath as a string.
func (fs *FileService) ReadFile(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadFileRaw returns the content of filePath as bytes.
func (fs *FileService) ReadFileRaw(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// ReadYamlFile reads and unmarshals YAML data from the given file.
func (fs *FileService) ReadYamlFile(filePath string, v any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return yaml.NewDecoder(file).Decode(v)
}

// WriteFileRaw replaces filePath with data. The write goes through a
// temporary file in the same directory followed by a rename, so readers
// see either the old or the new content.
func (fs *FileService) WriteFileRaw(filePath string, data []byte) error {
	if err := fs.EnsureDir(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("error creating parent directory: %w", err)
	}

	tempFile := filePath + ".tmp"
	file, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

// GetFileHash returns the hex SHA-256 of the file at filePath.
func (fs *FileService) GetFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("error reading file contents: %w", err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
