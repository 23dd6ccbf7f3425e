package app

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/osbi/saiku_services/internal/export_service/converter"
	"github.com/osbi/saiku_services/internal/export_service/domain"
)

// MockRepository is a mock implementation of domain.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetResource(ctx context.Context, key string) (*domain.Resource, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}

// MockQueryEngine is a mock implementation of domain.QueryEngine
type MockQueryEngine struct {
	mock.Mock
}

func (m *MockQueryEngine) CreateQuery(ctx context.Context, name, queryText string) (*domain.ThinQuery, error) {
	args := m.Called(ctx, name, queryText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ThinQuery), args.Error(1)
}

func (m *MockQueryEngine) Execute(ctx context.Context, query *domain.ThinQuery) (domain.QueryResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.QueryResult), args.Error(1)
}

func (m *MockQueryEngine) ExcelExport(ctx context.Context, queryName, formatter, displayName string) (*domain.ExportArtifact, error) {
	args := m.Called(ctx, queryName, formatter, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportArtifact), args.Error(1)
}

func (m *MockQueryEngine) CSVExport(ctx context.Context, queryName string) (*domain.ExportArtifact, error) {
	args := m.Called(ctx, queryName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportArtifact), args.Error(1)
}

func (m *MockQueryEngine) HTMLExport(ctx context.Context, queryName, formatter string, opts domain.HTMLOptions) (*domain.ExportArtifact, error) {
	args := m.Called(ctx, queryName, formatter, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportArtifact), args.Error(1)
}

// MockConverter records the SVG it is asked to convert.
type MockConverter struct {
	mock.Mock
	typ         converter.Type
	contentType string
	ext         string
}

func (m *MockConverter) Type() converter.Type { return m.typ }
func (m *MockConverter) ContentType() string  { return m.contentType }
func (m *MockConverter) Extension() string    { return m.ext }

func (m *MockConverter) Convert(ctx context.Context, in io.Reader, out io.Writer, size *int) error {
	data, _ := io.ReadAll(in)
	args := m.Called(string(data), size)
	if payload := args.String(0); payload != "" {
		_, _ = io.WriteString(out, payload)
	}
	return args.Error(1)
}

// MockResolver is a mock ConverterResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(name string) (converter.Converter, bool) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(converter.Converter), args.Bool(1)
}
