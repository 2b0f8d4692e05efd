package cartapi

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS cart_items (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	product_id TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT '',
	quantity   INT  NOT NULL,
	price      DOUBLE PRECISION NOT NULL DEFAULT 0,
	name       TEXT NOT NULL DEFAULT '',
	image_url  TEXT NOT NULL DEFAULT '',
	brand      TEXT NOT NULL DEFAULT '',
	stock      INT  NOT NULL DEFAULT 0,
	category   TEXT NOT NULL DEFAULT '',
	added_at   BIGINT NOT NULL,
	UNIQUE (user_id, product_id)
)`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, schemaDDL)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Get(ctx context.Context, userID string) ([]Line, error) {
	var out []Line

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT product_id, kind, quantity, price, name, image_url, brand, stock, category, added_at
			FROM cart_items
			WHERE user_id = $1
			ORDER BY added_at ASC, product_id ASC
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Line, 0, 8)
		for rows.Next() {
			var l Line
			if err := rows.Scan(&l.ProductID, &l.Kind, &l.Quantity, &l.Price,
				&l.Name, &l.ImageURL, &l.Brand, &l.Stock, &l.Category, &l.AddedAt); err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, userID string, l Line) error {
	if l.Quantity < 1 || l.Kind == kindUnique {
		l.Quantity = 1
	}
	if l.AddedAt == 0 {
		l.AddedAt = time.Now().UnixMilli()
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO cart_items (id, user_id, product_id, kind, quantity, price, name, image_url, brand, stock, category, added_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (user_id, product_id) DO UPDATE SET
				quantity  = CASE WHEN cart_items.kind = 'unique' THEN 1 ELSE EXCLUDED.quantity END,
				price     = EXCLUDED.price,
				name      = EXCLUDED.name,
				image_url = EXCLUDED.image_url,
				brand     = EXCLUDED.brand,
				stock     = EXCLUDED.stock,
				category  = EXCLUDED.category
		`, "ci_"+uuid.NewString(), userID, l.ProductID, l.Kind, l.Quantity, l.Price,
			l.Name, l.ImageURL, l.Brand, l.Stock, l.Category, l.AddedAt)
		return err
	})
}

func (s *PostgresStore) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO cart_items (id, user_id, product_id, quantity, added_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, product_id) DO UPDATE SET
				quantity = CASE WHEN cart_items.kind = 'unique' THEN 1 ELSE EXCLUDED.quantity END
		`, "ci_"+uuid.NewString(), userID, productID, qty, time.Now().UnixMilli())
		return err
	})
}

func (s *PostgresStore) Remove(ctx context.Context, userID, productID string) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2
		`, userID, productID)
		return err
	})
}

func (s *PostgresStore) Clear(ctx context.Context, userID string) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			DELETE FROM cart_items WHERE user_id = $1
		`, userID)
		return err
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
