package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres error codes mapped to sentinel errors.
const (
	pgUniqueViolation   = "23505"
	pgInvalidTextRepr   = "22P02"
	pgInvalidJSONText   = "22032"
)

const flagColumns = "id, flag_key, description, enabled, flag_data, version, created_at, updated_at"

// PostgresStore is a PostgreSQL implementation of the Store interface.
// Every operation is a single round trip; toggle and update are single
// statements so the database serializes conflicting writes on a row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// List retrieves flags ordered by flag_key, optionally filtered by a
// case-insensitive substring match on flag_key or description.
func (p *PostgresStore) List(ctx context.Context, search string) ([]FeatureFlag, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if search == "" {
		rows, err = p.pool.Query(ctx,
			"SELECT "+flagColumns+" FROM feature_flags ORDER BY flag_key ASC")
	} else {
		pattern := "%" + escapeLike(search) + "%"
		rows, err = p.pool.Query(ctx,
			"SELECT "+flagColumns+` FROM feature_flags
			 WHERE flag_key ILIKE $1 ESCAPE '\' OR description ILIKE $1 ESCAPE '\'
			 ORDER BY flag_key ASC`, pattern)
	}
	if err != nil {
		return nil, err
	}
	return collectFlags(rows)
}

// ListEnabled retrieves enabled flags ordered by flag_key.
func (p *PostgresStore) ListEnabled(ctx context.Context) ([]FeatureFlag, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT "+flagColumns+" FROM feature_flags WHERE enabled ORDER BY flag_key ASC")
	if err != nil {
		return nil, err
	}
	return collectFlags(rows)
}

// GetByKey retrieves a single flag by its key.
func (p *PostgresStore) GetByKey(ctx context.Context, key string) (*FeatureFlag, error) {
	row := p.pool.QueryRow(ctx,
		"SELECT "+flagColumns+" FROM feature_flags WHERE flag_key = $1", key)
	return scanFlag(row)
}

// Create inserts a new flag. The unique constraint on flag_key is the
// correctness guarantee against concurrent duplicate creates.
func (p *PostgresStore) Create(ctx context.Context, params CreateParams) (*FeatureFlag, error) {
	data, err := normalizeFlagData(params.FlagData)
	if err != nil {
		return nil, err
	}
	row := p.pool.QueryRow(ctx,
		`INSERT INTO feature_flags (flag_key, description, enabled, flag_data)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+flagColumns,
		params.FlagKey, params.Description, params.Enabled, data)
	flag, err := scanFlag(row)
	if err != nil {
		return nil, mapPgError(err)
	}
	return flag, nil
}

// Update applies only the fields present in patch. An empty patch is
// special-cased as a read: an UPDATE with zero assigned columns is not
// valid SQL, and a no-op must not advance updated_at.
func (p *PostgresStore) Update(ctx context.Context, key string, patch Patch) (*FeatureFlag, error) {
	if patch.IsEmpty() {
		return p.GetByKey(ctx, key)
	}

	assigns := make([]string, 0, 5)
	args := make([]any, 0, 4)
	if patch.Description != nil {
		args = append(args, *patch.Description)
		assigns = append(assigns, fmt.Sprintf("description = $%d", len(args)))
	}
	if patch.Enabled != nil {
		args = append(args, *patch.Enabled)
		assigns = append(assigns, fmt.Sprintf("enabled = $%d", len(args)))
	}
	if patch.FlagData != nil {
		data, err := normalizeFlagData(patch.FlagData)
		if err != nil {
			return nil, err
		}
		args = append(args, data)
		assigns = append(assigns, fmt.Sprintf("flag_data = $%d", len(args)))
	}
	assigns = append(assigns, "version = version + 1", "updated_at = now()")

	args = append(args, key)
	query := fmt.Sprintf("UPDATE feature_flags SET %s WHERE flag_key = $%d RETURNING %s",
		strings.Join(assigns, ", "), len(args), flagColumns)

	flag, err := scanFlag(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapPgError(err)
	}
	return flag, nil
}

// Toggle flips enabled in one statement so concurrent toggles on the
// same key cannot lose updates.
func (p *PostgresStore) Toggle(ctx context.Context, key string) (*FeatureFlag, error) {
	row := p.pool.QueryRow(ctx,
		`UPDATE feature_flags
		 SET enabled = NOT enabled, version = version + 1, updated_at = now()
		 WHERE flag_key = $1
		 RETURNING `+flagColumns, key)
	return scanFlag(row)
}

// Delete removes the flag permanently. Reports whether a row was deleted.
func (p *PostgresStore) Delete(ctx context.Context, key string) (bool, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM feature_flags WHERE flag_key = $1", key)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Ping verifies database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// normalizeFlagData validates the payload and substitutes {} for nil.
// Any well-formed JSON value is accepted: object, array or scalar.
func normalizeFlagData(data json.RawMessage) ([]byte, error) {
	if data == nil {
		return []byte(emptyJSONObject), nil
	}
	if !json.Valid(data) {
		return nil, ErrInvalidPayload
	}
	return data, nil
}

// escapeLike escapes LIKE metacharacters so a search term matches them
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// mapPgError translates database constraint failures into sentinel errors.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgInvalidTextRepr, pgInvalidJSONText:
			return ErrInvalidPayload
		}
	}
	return err
}

func collectFlags(rows pgx.Rows) ([]FeatureFlag, error) {
	defer rows.Close()

	flags := make([]FeatureFlag, 0)
	for rows.Next() {
		var f FeatureFlag
		if err := rows.Scan(&f.ID, &f.FlagKey, &f.Description, &f.Enabled,
			&f.FlagData, &f.Version, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flags, nil
}

func scanFlag(row pgx.Row) (*FeatureFlag, error) {
	var f FeatureFlag
	err := row.Scan(&f.ID, &f.FlagKey, &f.Description, &f.Enabled,
		&f.FlagData, &f.Version, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}
