package geocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Postgres keeps location keys in the city_locations table.
type Postgres struct {
	db  *sqlx.DB
	ttl time.Duration
}

type cityLocation struct {
	City        string    `db:"city"`
	LocationKey string    `db:"location_key"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// NewPostgres uses db, which must already be migrated. Rows older than ttl
// are ignored; a zero ttl never expires them.
func NewPostgres(db *sqlx.DB, ttl time.Duration) *Postgres {
	return &Postgres{db: db, ttl: ttl}
}

// Lookup implements forecast.KeyCache.
func (p *Postgres) Lookup(ctx context.Context, city string) (string, bool, error) {
	var row cityLocation
	err := p.db.GetContext(ctx, &row,
		`SELECT city, location_key, updated_at FROM city_locations WHERE city = $1`, Normalize(city))
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select city_locations: %w", err)
	}
	if p.ttl > 0 && time.Since(row.UpdatedAt) > p.ttl {
		return "", false, nil
	}
	return row.LocationKey, true, nil
}

// Store implements forecast.KeyCache.
func (p *Postgres) Store(ctx context.Context, city, key string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO city_locations (city, location_key, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (city) DO UPDATE
		SET location_key = EXCLUDED.location_key, updated_at = EXCLUDED.updated_at`,
		Normalize(city), key)
	if err != nil {
		return fmt.Errorf("upsert city_locations: %w", err)
	}
	return nil
}
