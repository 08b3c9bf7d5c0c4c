// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"strings"
	"sync"

	"amiqc/internal/domain"
)

// === Table catalog mock ===

// MockCatalog implements domain.TableCatalog over in-memory relations.
type MockCatalog struct {
	Tables    map[string]*domain.Relation
	Locations map[string]string
	TableFn   func(ctx context.Context, name string) (*domain.Relation, error)
}

// NewMockCatalog creates an empty catalog.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Tables:    map[string]*domain.Relation{},
		Locations: map[string]string{},
	}
}

// Register adds a relation under a name, with a synthetic location.
func (m *MockCatalog) Register(name string, rel *domain.Relation) {
	m.Tables[name] = rel
	m.Locations[name] = "mem://" + name
}

// Table implements the interface method for testing.
func (m *MockCatalog) Table(ctx context.Context, name string) (*domain.Relation, error) {
	if m.TableFn != nil {
		return m.TableFn(ctx, name)
	}
	rel, ok := m.Tables[name]
	if !ok {
		return nil, domain.ErrNotFound("virtual table %q is not registered", name)
	}
	return rel, nil
}

// Location implements the interface method for testing.
func (m *MockCatalog) Location(name string) (string, error) {
	loc, ok := m.Locations[name]
	if !ok {
		return "", domain.ErrNotFound("virtual table %q is not registered", name)
	}
	return loc, nil
}

// === Row writer mock ===

// Write is one recorded WriteRows call.
type Write struct {
	Location string
	Columns  []string
	Rows     [][]interface{}
}

// MockWriter implements domain.RowWriter, recording every write. WriteFn,
// when set, can inject failures per location.
type MockWriter struct {
	mu      sync.Mutex
	Writes  []Write
	WriteFn func(location string) error
	format  string
}

// NewMockWriter creates a recording writer with the given format name.
func NewMockWriter(format string) *MockWriter {
	return &MockWriter{format: format}
}

// Format implements the interface method for testing.
func (m *MockWriter) Format() string { return m.format }

// WriteRows implements the interface method for testing.
func (m *MockWriter) WriteRows(ctx context.Context, location string, columns []string, rows [][]interface{}) error {
	if m.WriteFn != nil {
		if err := m.WriteFn(location); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes = append(m.Writes, Write{Location: location, Columns: columns, Rows: rows})
	return nil
}

// LastWrite returns the last recorded write, or nil if none.
func (m *MockWriter) LastWrite() *Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Writes) == 0 {
		return nil
	}
	return &m.Writes[len(m.Writes)-1]
}

// WriteTo returns the first recorded write whose location contains substr,
// or nil if none.
func (m *MockWriter) WriteTo(substr string) *Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Writes {
		if strings.Contains(m.Writes[i].Location, substr) {
			return &m.Writes[i]
		}
	}
	return nil
}

// === Run store mock ===

// MockRunStore implements domain.RunStore for testing.
type MockRunStore struct {
	Runs     []*domain.QcRun
	InsertFn func(ctx context.Context, run *domain.QcRun) error
}

// InsertRun implements the interface method for testing.
func (m *MockRunStore) InsertRun(ctx context.Context, run *domain.QcRun) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, run); err != nil {
			return err
		}
	}
	m.Runs = append(m.Runs, run)
	return nil
}
