package sqlite

import (
	"context"
	"database/sql"

	"github.com/weatherwise/weatherwise/internal/domain"
	"github.com/weatherwise/weatherwise/internal/store"
)

type citiesRepo struct {
	db dbtx
}

const cityColumns = `id, user_id, name, description, temperature, lat, lon, created_at`

func scanCity(row interface{ Scan(...any) error }) (domain.City, error) {
	var c domain.City
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Temperature, &c.Lat, &c.Lon, &c.CreatedAt)
	return c, err
}

func (r *citiesRepo) CreateCity(ctx context.Context, c domain.City) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cities (`+cityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Description, c.Temperature, c.Lat, c.Lon, c.CreatedAt)
	return mapConstraint(err)
}

func (r *citiesRepo) ListCities(ctx context.Context, userID string) ([]domain.City, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cityColumns+`
		FROM cities
		WHERE user_id = ?
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.City
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *citiesRepo) GetCity(ctx context.Context, id string) (domain.City, error) {
	c, err := scanCity(r.db.QueryRowContext(ctx, `
		SELECT `+cityColumns+`
		FROM cities
		WHERE id = ?`, id))
	if err != nil {
		return domain.City{}, mapNotFound(err)
	}
	return c, nil
}

func (r *citiesRepo) DeleteCity(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *citiesRepo) GetMyLocation(ctx context.Context, userID string) (domain.City, error) {
	c, err := scanCity(r.db.QueryRowContext(ctx, `
		SELECT `+cityColumns+`
		FROM cities
		WHERE user_id = ? AND description = ?
		LIMIT 1`, userID, domain.MyLocationDescription))
	if err != nil {
		return domain.City{}, mapNotFound(err)
	}
	return c, nil
}

// UpsertMyLocation keeps at most one tracked-location row per user by
// deleting the previous one inside the same statement batch.
func (r *citiesRepo) UpsertMyLocation(ctx context.Context, c domain.City) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM cities
		WHERE user_id = ? AND description = ? AND id != ?`,
		c.UserID, domain.MyLocationDescription, c.ID); err != nil {
		return err
	}

	c.Description = domain.MyLocationDescription
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cities (`+cityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			temperature = excluded.temperature,
			lat = excluded.lat,
			lon = excluded.lon`,
		c.ID, c.UserID, c.Name, c.Description, c.Temperature, c.Lat, c.Lon, c.CreatedAt)
	return mapConstraint(err)
}

func (r *citiesRepo) UpdateTemperature(ctx context.Context, id string, tempC float64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cities SET temperature = ? WHERE id = ?`, tempC, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
