package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/fuelprice-data/internal/db"
)

// Postgres is the pgx-backed store. It relies on the prepared statements
// registered by db.New.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a pool created by db.New.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// LatestObservationAt returns the newest recorded_at in the price history,
// or nil when no observation exists.
func (p *Postgres) LatestObservationAt(ctx context.Context) (*time.Time, error) {
	var last *time.Time
	if err := p.pool.QueryRow(ctx, db.StmtLatestObservationAt).Scan(&last); err != nil {
		return nil, fmt.Errorf("query latest observation: %w", err)
	}
	return last, nil
}

// SaveStation upserts the station and appends its price rows in a single
// transaction. Any failure rolls back both.
func (p *Postgres) SaveStation(ctx context.Context, st StationFields, prices []PriceRow) (SaveResult, error) {
	var res SaveResult
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, db.StmtUpsertStation,
			st.Source, st.ProviderSiteID, st.Name, st.Address,
			st.Latitude, st.Longitude, st.CountryCode,
		).Scan(&res.StationID, &res.Created)
		if err != nil {
			return fmt.Errorf("upsert station: %w", err)
		}

		if len(prices) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, row := range prices {
			batch.Queue(db.StmtInsertPrice, res.StationID, row.FuelType, row.Price, row.Currency, row.RecordedAt)
		}
		br := tx.SendBatch(ctx, batch)
		for _, row := range prices {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert %s price: %w", row.FuelType, err)
			}
			res.PricesInserted++
		}
		return br.Close()
	})
	if err != nil {
		return SaveResult{}, err
	}
	return res, nil
}

// ListStations returns every station with its latest observation per fuel
// type, ordered by station id.
func (p *Postgres) ListStations(ctx context.Context) ([]StationView, error) {
	rows, err := p.pool.Query(ctx, db.StmtListStations)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var out []StationView
	for rows.Next() {
		var (
			v          StationView
			fuelType   *string
			price      *float64
			currency   *string
			recordedAt *time.Time
		)
		if err := rows.Scan(
			&v.ID, &v.Source, &v.ProviderSiteID, &v.Name, &v.Address,
			&v.Latitude, &v.Longitude, &v.CountryCode, &v.UpdatedAt,
			&fuelType, &price, &currency, &recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}

		if n := len(out); n == 0 || out[n-1].ID != v.ID {
			out = append(out, v)
		}
		if fuelType != nil && recordedAt != nil {
			cur := &out[len(out)-1]
			lp := LatestPrice{FuelType: *fuelType, Price: price, RecordedAt: *recordedAt}
			if currency != nil {
				lp.Currency = *currency
			}
			cur.Prices = append(cur.Prices, lp)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}
	return out, nil
}
