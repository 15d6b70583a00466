package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // драйвер "pgx" для database/sql
	"github.com/jmoiron/sqlx"
)

// sqlOrderStore — запасной путь хранилища: ручные параметризованные
// SQL-выражения поверх той же таблицы. Используется, когда структурная
// миграция ещё не выполнялась; обязан возвращать ровно тот же набор полей,
// что и GORM-реализация.
type sqlOrderStore struct{ db *sqlx.DB }

func NewSQLOrderStore(db *sqlx.DB) *sqlOrderStore { return &sqlOrderStore{db: db} }

// EnsureSchema создаёт таблицы при первом обращении, если их ещё нет.
// DDL повторяет то, что делает internal/migrate, но без GORM.
func (r *sqlOrderStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
		`CREATE TABLE IF NOT EXISTS hardware_orders (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id uuid NOT NULL,
			contact_email text NOT NULL,
			product_type text NOT NULL,
			quantity int NOT NULL,
			use_default_design boolean NOT NULL DEFAULT false,
			primary_color text NOT NULL DEFAULT '',
			secondary_color text NOT NULL DEFAULT '',
			primary_text text NOT NULL DEFAULT '',
			secondary_text text NOT NULL DEFAULT '',
			icon text NOT NULL DEFAULT '',
			profile_id uuid,
			status text NOT NULL DEFAULT 'ORDER_STATUS_PENDING',
			status_note text,
			processed_at timestamptz,
			processed_by uuid,
			metadata jsonb,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			CONSTRAINT chk_hardware_orders_quantity_min CHECK (quantity >= 1),
			CONSTRAINT chk_hardware_orders_status_allowed CHECK (status IN (
				'ORDER_STATUS_PENDING','ORDER_STATUS_PROCESSING','ORDER_STATUS_READY',
				'ORDER_STATUS_SHIPPED','ORDER_STATUS_COMPLETED','ORDER_STATUS_CANCELLED')),
			CONSTRAINT chk_hardware_orders_product_allowed CHECK (product_type IN (
				'PRODUCT_TYPE_TAG','PRODUCT_TYPE_CARD','PRODUCT_TYPE_STICKER'))
		)`,
		`CREATE INDEX IF NOT EXISTS ix_hardware_orders_user_created ON hardware_orders (user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS ix_hardware_orders_status_created ON hardware_orders (status, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS tag_colors (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			hex text NOT NULL UNIQUE,
			name text NOT NULL,
			enabled boolean NOT NULL DEFAULT true,
			in_stock boolean NOT NULL DEFAULT true,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id uuid NOT NULL,
			slug text NOT NULL UNIQUE,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const orderColumns = `id, user_id, contact_email, product_type, quantity,
	use_default_design, primary_color, secondary_color, primary_text, secondary_text,
	icon, profile_id, status, status_note, processed_at, processed_by, metadata,
	created_at, updated_at`

var insertOrderQuery = `INSERT INTO hardware_orders (
		id, user_id, contact_email, product_type, quantity, use_default_design,
		primary_color, secondary_color, primary_text, secondary_text, icon,
		profile_id, status, metadata, created_at, updated_at)
	VALUES (COALESCE($1, gen_random_uuid()),$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	RETURNING id`

func (r *sqlOrderStore) Create(ctx context.Context, o *models.HardwareOrder) error {
	// id задаётся вызывающим (от него считается transactionId);
	// пустой id генерирует база, как и в GORM-пути.
	id := uuid.NullUUID{UUID: o.ID, Valid: o.ID != uuid.Nil}
	row := r.db.QueryRowxContext(ctx, insertOrderQuery,
		id, o.UserID, o.ContactEmail, o.ProductType, o.Quantity, o.UseDefaultDesign,
		o.PrimaryColor, o.SecondaryColor, o.PrimaryText, o.SecondaryText, o.Icon,
		o.ProfileID, o.Status, []byte(o.Metadata), o.CreatedAt, o.UpdatedAt,
	)
	return row.Scan(&o.ID)
}

func (r *sqlOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.HardwareOrder, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM hardware_orders WHERE id = $1`, id)
}

func (r *sqlOrderStore) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.HardwareOrder, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM hardware_orders WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *sqlOrderStore) getOne(ctx context.Context, query string, args ...any) (*models.HardwareOrder, error) {
	ord, err := scanOrder(r.db.QueryRowxContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ord, nil
}

func (r *sqlOrderStore) ListForUser(ctx context.Context, userID uuid.UUID, f ListFilter) ([]*models.HardwareOrder, int64, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	return r.list(ctx, where, args, f.Limit, f.Offset)
}

func (r *sqlOrderStore) ListPending(ctx context.Context) ([]*models.HardwareOrder, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT `+orderColumns+` FROM hardware_orders WHERE status = $1 ORDER BY created_at ASC`,
		models.OrderStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *sqlOrderStore) ListForAdmin(ctx context.Context, f AdminListFilter) ([]*models.HardwareOrder, int64, error) {
	var where []string
	var args []any
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(contact_email ILIKE $%d OR primary_text ILIKE $%d OR secondary_text ILIKE $%d OR id::text ILIKE $%d)",
			n, n, n, n))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ProductType != nil {
		args = append(args, *f.ProductType)
		where = append(where, fmt.Sprintf("product_type = $%d", len(args)))
	}
	return r.list(ctx, where, args, f.Limit, f.Offset)
}

func (r *sqlOrderStore) list(ctx context.Context, where []string, args []any, limit, offset int) ([]*models.HardwareOrder, int64, error) {
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM hardware_orders`+cond, args...); err != nil {
		return nil, 0, err
	}

	limit, offset = clampPage(limit, offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM hardware_orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, cond, len(args)-1, len(args))

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list, err := scanOrders(rows)
	return list, total, err
}

var updateOrderQuery = `UPDATE hardware_orders
	SET status = $2, status_note = $3, processed_at = $4, processed_by = $5, metadata = $6, updated_at = now()
	WHERE id = $1`

func (r *sqlOrderStore) UpdateStatusAndMetadata(ctx context.Context, id uuid.UUID, upd StatusUpdate) error {
	res, err := r.db.ExecContext(ctx, updateOrderQuery,
		id, upd.Status, upd.StatusNote, upd.ProcessedAt, upd.ProcessedBy, []byte(upd.Metadata))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanOrder(row rowScanner) (*models.HardwareOrder, error) {
	var (
		o         models.HardwareOrder
		profileID uuid.NullUUID
		processBy uuid.NullUUID
		processAt sql.NullTime
		note      sql.NullString
		meta      []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.ContactEmail, &o.ProductType, &o.Quantity,
		&o.UseDefaultDesign, &o.PrimaryColor, &o.SecondaryColor, &o.PrimaryText, &o.SecondaryText,
		&o.Icon, &profileID, &o.Status, &note, &processAt, &processBy, &meta,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if profileID.Valid {
		v := profileID.UUID
		o.ProfileID = &v
	}
	if processBy.Valid {
		v := processBy.UUID
		o.ProcessedBy = &v
	}
	if processAt.Valid {
		v := processAt.Time
		o.ProcessedAt = &v
	}
	if note.Valid {
		v := note.String
		o.StatusNote = &v
	}
	o.Metadata = meta
	return &o, nil
}

func scanOrders(rows *sqlx.Rows) ([]*models.HardwareOrder, error) {
	var list []*models.HardwareOrder
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, ord)
	}
	return list, rows.Err()
}
