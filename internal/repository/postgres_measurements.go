package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

type PostgresMeasurementsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresMeasurementsRepo(db *sql.DB, logger *zap.Logger) *PostgresMeasurementsRepo {
	return &PostgresMeasurementsRepo{db: db, logger: logger}
}

func (r *PostgresMeasurementsRepo) Append(ctx context.Context, in domain.NewMeasurement) (*domain.Measurement, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	// the row lock taken here orders this append against a concurrent claim/unbind
	var owner uuid.NullUUID
	err = tx.QueryRowContext(ctx,
		`UPDATE devices SET last_seen = now() WHERE id = $1 RETURNING owner_id`, in.DeviceID,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("touch device %s: %w", in.DeviceID, err)
	}

	m := &domain.Measurement{
		ID:        domain.NewID(),
		DeviceID:  in.DeviceID,
		Kind:      in.Kind,
		Value:     in.Value,
		Timestamp: in.Timestamp,
	}
	if owner.Valid {
		id := owner.UUID
		m.OwnerID = &id
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO measurements (id, device_id, owner_id, sensor_kind, value, ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING received_at`,
		m.ID, m.DeviceID, owner, string(m.Kind), m.Value, m.Timestamp,
	).Scan(&m.ReceivedAt)
	if err != nil {
		return nil, fmt.Errorf("insert measurement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return m, nil
}

func (r *PostgresMeasurementsRepo) Query(ctx context.Context, q domain.MeasurementQuery) ([]domain.Measurement, error) {
	where := []string{"device_id = $1", "owner_id = $2"}
	args := []any{q.DeviceID, q.OwnerID}
	argN := 3

	if len(q.Kinds) > 0 {
		kinds := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			kinds[i] = string(k)
		}
		where = append(where, fmt.Sprintf("sensor_kind = ANY($%d)", argN))
		args = append(args, pq.Array(kinds))
		argN++
	}
	if q.From > 0 {
		where = append(where, fmt.Sprintf("ts >= $%d", argN))
		args = append(args, q.From)
		argN++
	}
	if q.To > 0 {
		where = append(where, fmt.Sprintf("ts <= $%d", argN))
		args = append(args, q.To)
		argN++
	}
	if q.MinValue != nil {
		where = append(where, fmt.Sprintf("value > $%d", argN))
		args = append(args, *q.MinValue)
		argN++
	}

	order := "ts DESC, received_at DESC"
	if q.Order == domain.OldestFirst {
		order = "ts ASC, received_at ASC"
	}
	args = append(args, clampLimit(q.Limit))

	query := `
		SELECT id, device_id, owner_id, sensor_kind, value, ts, received_at
		FROM measurements
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + order + fmt.Sprintf(`
		LIMIT $%d`, argN)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	out := []domain.Measurement{}
	for rows.Next() {
		var (
			m     domain.Measurement
			owner uuid.NullUUID
			kind  string
		)
		if err := rows.Scan(&m.ID, &m.DeviceID, &owner, &kind, &m.Value, &m.Timestamp, &m.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		m.Kind = domain.SensorKind(kind)
		if owner.Valid {
			id := owner.UUID
			m.OwnerID = &id
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
