package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/metaview/internal/cell"
)

// CellRepository implements the cell.Repository interface using PostgreSQL
type CellRepository struct {
	db *pgxpool.Pool
}

var _ cell.Repository = (*CellRepository)(nil)

// Get retrieves the value of a cell
func (repo *CellRepository) Get(ctx context.Context, key string) (string, bool, error) {
	sql, values, err := squirrel.Select("cell_value").
		From("session_cells").
		Where(squirrel.Eq{"cell_key": key}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", false, err
	}

	var value string
	if err := repo.db.QueryRow(ctx, sql, values...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set creates or overwrites the value of a cell
func (repo *CellRepository) Set(ctx context.Context, key, value string) error {
	sql, values, err := squirrel.Insert("session_cells").
		Columns("cell_key", "cell_value", "updated_at").
		Values(key, value, time.Now().Unix()).
		Suffix("ON CONFLICT (cell_key) DO UPDATE SET cell_value = EXCLUDED.cell_value, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	_, err = repo.db.Exec(ctx, sql, values...)
	return err
}
