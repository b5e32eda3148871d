package mysql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Zeecoworld/google-stuff/internal/domain"
)

// Field sentinels are domain-level; at rest an absent value is NULL.

func nullIfSentinel(v, sentinel string) any {
	v = strings.TrimSpace(v)
	if v == "" || v == sentinel {
		return nil
	}
	return v
}

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func strOr(ns sql.NullString, def string) string {
	if ns.Valid && strings.TrimSpace(ns.String) != "" {
		return ns.String
	}
	return def
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertBusinesses(ctx context.Context, query string, bs []domain.Business) error {
	if len(bs) == 0 {
		return nil
	}
	values := make([]string, 0, len(bs))
	args := make([]any, 0, len(bs)*10)
	for _, b := range bs {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			query,
			b.Name,
			nullIfSentinel(b.Address, domain.NoAddress),
			nullIfSentinel(b.Website, domain.NoWebsite),
			nullIfSentinel(b.PhoneNumber, domain.NoPhone),
			b.ReviewsCount,
			b.ReviewsAverage,
			valF64(b.Latitude),
			valF64(b.Longitude),
			nullIfSentinel(b.Email, ""),
		)
	}
	sqlStr := insertBusinessesPrefix + strings.Join(values, ",") + insertBusinessesOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) ListBusinesses(ctx context.Context, query string) ([]domain.Business, error) {
	rows, err := r.db.QueryContext(ctx, listBusinessesSQL, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Business
	for rows.Next() {
		var (
			b        domain.Business
			address  sql.NullString
			website  sql.NullString
			phone    sql.NullString
			email    sql.NullString
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&b.Name, &address, &website, &phone,
			&b.ReviewsCount, &b.ReviewsAverage, &lat, &lon, &email); err != nil {
			return nil, err
		}
		b.Address = strOr(address, domain.NoAddress)
		b.Website = strOr(website, domain.NoWebsite)
		b.PhoneNumber = strOr(phone, domain.NoPhone)
		b.Email = strOr(email, "")
		if lat.Valid && lon.Valid {
			b.Latitude = &lat.Float64
			b.Longitude = &lon.Float64
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) ListGeographies(ctx context.Context, onlyUnprocessed bool) ([]domain.Geography, error) {
	q := listGeographiesSQL
	if onlyUnprocessed {
		q = listUnprocessedGeographiesSQL
	}
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Geography
	for rows.Next() {
		var g domain.Geography
		if err := rows.Scan(&g.City, &g.State); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateGeographyCoords(ctx context.Context, g domain.Geography, c domain.Coordinates) error {
	_, err := r.db.ExecContext(ctx, updateGeographyCoordsSQL, c.Lat, c.Lon, g.City, g.State)
	return err
}

func (r *Repo) MarkGeographyProcessed(ctx context.Context, g domain.Geography) error {
	_, err := r.db.ExecContext(ctx, markGeographyProcessedSQL, g.City, g.State)
	return err
}
