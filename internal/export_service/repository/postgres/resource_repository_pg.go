package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/osbi/saiku_services/internal/export_service/domain"
)

// Querier is the subset of pgxpool.Pool (and pgx.Tx) the repository needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgResourceRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgResourceRepository(db Querier, logger *slog.Logger) domain.Repository {
	return &PgResourceRepository{db: db, logger: logger.With("component", "resource_repository_pg")}
}

// GetResource loads the entry stored under key. Folders are rows with NULL content.
func (r *PgResourceRepository) GetResource(ctx context.Context, key string) (*domain.Resource, error) {
	query := `SELECT content, COALESCE(content_type, '') FROM saiku_repository WHERE path = $1`

	res := &domain.Resource{Path: key}
	err := r.db.QueryRow(ctx, query, key).Scan(&res.Content, &res.ContentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.DebugContext(ctx, "Repository entry not found", "path", key)
			return nil, fmt.Errorf("%w: %s", domain.ErrResourceNotFound, key)
		}
		r.logger.ErrorContext(ctx, "Error fetching repository entry", "path", key, "error", err)
		return nil, fmt.Errorf("querying saiku_repository: %w", err)
	}
	if res.Content == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotAFile, key)
	}
	return res, nil
}
