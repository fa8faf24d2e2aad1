// mock_storage.go - Mock storage implementations for testing
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yard-planner/backend/internal/models"
	"github.com/yard-planner/backend/internal/storage"
)

// MockSeedStore implements storage.SeedStore. Files are written to a temp
// directory so handlers can load them through GetFilePath.
type MockSeedStore struct {
	files   map[string]*models.FileInfo
	tempDir string
	mu      sync.RWMutex
}

// NewMockSeedStore creates a mock seed store backed by tempDir.
func NewMockSeedStore(tempDir string) *MockSeedStore {
	return &MockSeedStore{
		files:   make(map[string]*models.FileInfo),
		tempDir: tempDir,
	}
}

func (m *MockSeedStore) Save(name string, r io.Reader) (*models.FileInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.AddFile(generateTestID(), name, data)
}

func (m *MockSeedStore) Get(id string) (*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, errors.New("file not found")
	}
	return file, nil
}

func (m *MockSeedStore) List(limit int) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.FileInfo
	for _, file := range m.files {
		files = append(files, file)
		if limit > 0 && len(files) >= limit {
			break
		}
	}
	return files, nil
}

func (m *MockSeedStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, exists := m.files[id]
	if !exists {
		return errors.New("file not found")
	}
	if err := os.Remove(filepath.Join(m.tempDir, id+"_"+file.Name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	delete(m.files, id)
	return nil
}

func (m *MockSeedStore) Update(id string, status models.SeedStatus, containers int) (*models.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[id]
	if !ok {
		return nil, errors.New("file not found")
	}
	if status == models.SeedActive {
		for _, other := range m.files {
			if other.Status == models.SeedActive {
				other.Status = models.SeedUploaded
			}
		}
	}
	file.Status = status
	file.Containers = containers
	return file, nil
}

// GetFilePath returns the actual file path on disk
func (m *MockSeedStore) GetFilePath(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return "", errors.New("file not found")
	}
	return filepath.Join(m.tempDir, id+"_"+file.Name), nil
}

var _ storage.SeedStore = (*MockSeedStore)(nil)

// Test Helper Methods

// AddFile writes the file to disk and registers it under id.
func (m *MockSeedStore) AddFile(id string, name string, data []byte) (*models.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filePath := filepath.Join(m.tempDir, id+"_"+name)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return nil, fmt.Errorf("writing test file: %w", err)
	}

	file := &models.FileInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
		Status:     models.SeedUploaded,
	}
	m.files[id] = file
	return file, nil
}

// GetFileCount returns the number of stored files
func (m *MockSeedStore) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// MockPrefStore implements storage.PrefStore with optional failure injection.
type MockPrefStore struct {
	mu       sync.Mutex
	values   map[string]string
	FailGet  error
	FailSet  error
	SetCalls int
}

// NewMockPrefStore creates a mock pref store seeded with values.
func NewMockPrefStore(values map[string]string) *MockPrefStore {
	m := &MockPrefStore{values: make(map[string]string)}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *MockPrefStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGet != nil {
		return "", false, m.FailGet
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MockPrefStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls++
	if m.FailSet != nil {
		return m.FailSet
	}
	m.values[key] = value
	return nil
}

func (m *MockPrefStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MockPrefStore) All(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGet != nil {
		return nil, m.FailGet
	}
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *MockPrefStore) Close() error { return nil }

// Value returns a raw stored value.
func (m *MockPrefStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

var _ storage.PrefStore = (*MockPrefStore)(nil)

// generateTestID generates a simple test ID
var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
