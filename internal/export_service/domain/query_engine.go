package domain

import "context"

// QueryEngine is the external query-execution service.
type QueryEngine interface {
	CreateQuery(ctx context.Context, name, queryText string) (*ThinQuery, error)
	Execute(ctx context.Context, query *ThinQuery) (QueryResult, error)
	ExcelExport(ctx context.Context, queryName, formatter, displayName string) (*ExportArtifact, error)
	CSVExport(ctx context.Context, queryName string) (*ExportArtifact, error)
	HTMLExport(ctx context.Context, queryName, formatter string, opts HTMLOptions) (*ExportArtifact, error)
}
