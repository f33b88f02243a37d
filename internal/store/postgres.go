// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"diner-matching/internal/common/logger"
	"diner-matching/internal/models"
)

const profileColumns = `id, name, cuisines, availability, solo_style, location, budget, rating, email, phone`

// PostgresStore reads profiles from the diners table. List columns are JSONB
// arrays; rating, email and phone are nullable.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log.WithFields(map[string]interface{}{"store": "postgres"})}
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.DinerProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM diners WHERE id = $1`, id)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load diner %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) ListByCity(ctx context.Context, city string, limit int) ([]models.DinerProfile, error) {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" || limit <= 0 {
		return []models.DinerProfile{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM diners
		WHERE lower(trim(split_part(location, ',', 1))) = $1
		ORDER BY id
		LIMIT $2`, city, limit)
	if err != nil {
		return nil, fmt.Errorf("list diners in %s: %w", city, err)
	}
	defer rows.Close()

	out, err := scanProfiles(rows)
	if err != nil {
		return nil, fmt.Errorf("list diners in %s: %w", city, err)
	}
	s.logger.Debug("listed diners by city", map[string]interface{}{"city": city, "count": len(out)})
	return out, nil
}

func (s *PostgresStore) ListByIDs(ctx context.Context, ids []string) ([]models.DinerProfile, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return orderByIDs(ids, nil)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM diners WHERE id = ANY($1)`, pq.Array(unique))
	if err != nil {
		return nil, fmt.Errorf("list diners by id: %w", err)
	}
	defer rows.Close()

	list, err := scanProfiles(rows)
	if err != nil {
		return nil, fmt.Errorf("list diners by id: %w", err)
	}

	found := make(map[string]models.DinerProfile, len(list))
	for _, p := range list {
		found[p.ID] = p
	}
	return orderByIDs(ids, found)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row scanner) (*models.DinerProfile, error) {
	var (
		p                                 models.DinerProfile
		name, location, budget            sql.NullString
		email, phone                      sql.NullString
		rating                            sql.NullFloat64
		cuisines, availability, soloStyle []byte
	)
	if err := row.Scan(&p.ID, &name, &cuisines, &availability, &soloStyle, &location, &budget, &rating, &email, &phone); err != nil {
		return nil, err
	}

	p.Name = name.String
	p.Location = location.String
	p.Budget = budget.String
	p.Email = email.String
	p.Phone = phone.String
	if rating.Valid {
		p.Rating = models.Float64(rating.Float64)
	}

	var err error
	if p.Cuisines, err = decodeTags(cuisines); err != nil {
		return nil, fmt.Errorf("diner %s cuisines: %w", p.ID, err)
	}
	if p.Availability, err = decodeTags(availability); err != nil {
		return nil, fmt.Errorf("diner %s availability: %w", p.ID, err)
	}
	if p.SoloStyle, err = decodeTags(soloStyle); err != nil {
		return nil, fmt.Errorf("diner %s solo_style: %w", p.ID, err)
	}
	return &p, nil
}

func scanProfiles(rows *sql.Rows) ([]models.DinerProfile, error) {
	out := []models.DinerProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// decodeTags decodes a JSONB string array. NULL decodes to nil.
func decodeTags(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
