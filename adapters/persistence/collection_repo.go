package persistence

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// collectionSchema maps one item type onto its table. columns and values
// cover only the type-specific fields; the shared id, user_id, order_index
// and timestamps are handled by the repository.
type collectionSchema[T any] struct {
	kind    collection.Kind
	columns []string
	values  func(item T) []any
	// scan reads id, user_id, columns..., order_index, created_at, updated_at
	scan func(row pgx.Row) (T, error)
}

func (s collectionSchema[T]) selectColumns() string {
	cols := make([]string, 0, len(s.columns)+5)
	cols = append(cols, "id", "user_id")
	cols = append(cols, s.columns...)
	cols = append(cols, "order_index", "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

type postgresCollectionRepo[T collection.Item[T]] struct {
	db     *pgxpool.Pool
	schema collectionSchema[T]
	logger logger.Logger
}

func newPostgresCollectionRepo[T collection.Item[T]](db *pgxpool.Pool, schema collectionSchema[T], log logger.Logger) *postgresCollectionRepo[T] {
	return &postgresCollectionRepo[T]{
		db:     db,
		schema: schema,
		logger: log.With(zap.String("table", schema.kind.Table())),
	}
}

func (r *postgresCollectionRepo[T]) table() string {
	return r.schema.kind.Table()
}

func (r *postgresCollectionRepo[T]) scanOne(row pgx.Row, id string) (T, error) {
	item, err := r.schema.scan(row)
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, apperror.NewNotFound(r.schema.kind.Label(), id)
		}
		return zero, apperror.NewInternal("failed to scan "+r.schema.kind.Label()+" row", err)
	}
	return item, nil
}

func (r *postgresCollectionRepo[T]) Save(ctx context.Context, ownerID uuid.UUID, item T) (T, error) {
	var zero T
	cols := append([]string{"id", "user_id"}, r.schema.columns...)
	cols = append(cols, "order_index")
	vals := append([]any{item.ItemID(), ownerID}, r.schema.values(item)...)
	vals = append(vals, item.OrderIndex())

	query, args, err := psql.Insert(r.table()).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING " + r.schema.selectColumns()).
		ToSql()
	if err != nil {
		return zero, apperror.NewInternal("failed to build insert query", err)
	}

	saved, err := r.schema.scan(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return zero, apperror.NewInvalidInput(r.schema.kind.Label()+" already exists", err)
		}
		return zero, apperror.NewInternal("failed to save "+r.schema.kind.Label(), err)
	}
	return saved, nil
}

func (r *postgresCollectionRepo[T]) Update(ctx context.Context, ownerID uuid.UUID, item T) (T, error) {
	var zero T
	set := make(map[string]any, len(r.schema.columns)+2)
	for i, v := range r.schema.values(item) {
		set[r.schema.columns[i]] = v
	}
	set["order_index"] = item.OrderIndex()
	set["updated_at"] = sq.Expr("NOW()")

	query, args, err := psql.Update(r.table()).
		SetMap(set).
		Where(sq.Eq{"id": item.ItemID(), "user_id": ownerID}).
		Suffix("RETURNING " + r.schema.selectColumns()).
		ToSql()
	if err != nil {
		return zero, apperror.NewInternal("failed to build update query", err)
	}

	return r.scanOne(r.db.QueryRow(ctx, query, args...), item.ItemID().String())
}

func (r *postgresCollectionRepo[T]) UpdateOrder(ctx context.Context, ownerID uuid.UUID, entry collection.OrderEntry) error {
	return r.updateOrder(ctx, r.db, ownerID, entry)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *postgresCollectionRepo[T]) updateOrder(ctx context.Context, db execer, ownerID uuid.UUID, entry collection.OrderEntry) error {
	query := `UPDATE ` + r.table() + ` SET order_index = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`
	cmdTag, err := db.Exec(ctx, query, entry.OrderIndex, entry.ID, ownerID)
	if err != nil {
		return apperror.NewInternal("failed to update "+r.schema.kind.Label()+" order", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.schema.kind.Label(), entry.ID.String())
	}
	return nil
}

// Reorder writes every entry in one transaction; any missing or foreign id
// rolls the whole reorder back.
func (r *postgresCollectionRepo[T]) Reorder(ctx context.Context, ownerID uuid.UUID, entries []collection.OrderEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperror.NewInternal("failed to begin reorder", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.Warn("Reorder rollback failed", zap.Error(rbErr))
		}
	}()

	for _, e := range entries {
		if err := r.updateOrder(ctx, tx, ownerID, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.NewInternal("failed to commit reorder", err)
	}
	return nil
}

func (r *postgresCollectionRepo[T]) Delete(ctx context.Context, ownerID uuid.UUID, id uuid.UUID) error {
	query := `DELETE FROM ` + r.table() + ` WHERE id = $1 AND user_id = $2`
	cmdTag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return apperror.NewInternal("failed to delete "+r.schema.kind.Label(), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.schema.kind.Label(), id.String())
	}
	return nil
}

func (r *postgresCollectionRepo[T]) FindByID(ctx context.Context, ownerID uuid.UUID, id uuid.UUID) (T, error) {
	query := `SELECT ` + r.schema.selectColumns() + ` FROM ` + r.table() + ` WHERE id = $1 AND user_id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, id, ownerID), id.String())
}

func (r *postgresCollectionRepo[T]) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]T, error) {
	query, args, err := psql.Select(r.schema.selectColumns()).
		From(r.table()).
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("order_index ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query "+r.table(), err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := r.schema.scan(rows)
		if err != nil {
			return nil, apperror.NewInternal("failed to scan "+r.schema.kind.Label()+" row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating "+r.table(), err)
	}
	return items, nil
}

func (r *postgresCollectionRepo[T]) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From(r.table()).
		Where(sq.Eq{"user_id": ownerID}).
		ToSql()
	if err != nil {
		return 0, apperror.NewInternal("failed to build count query", err)
	}
	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperror.NewInternal("failed to count "+r.table(), err)
	}
	return n, nil
}
