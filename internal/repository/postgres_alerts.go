package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

type PostgresAlertsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresAlertsRepo(db *sql.DB, logger *zap.Logger) *PostgresAlertsRepo {
	return &PostgresAlertsRepo{db: db, logger: logger}
}

func (r *PostgresAlertsRepo) InsertAlert(ctx context.Context, deviceID domain.ID, message string) (*domain.Alert, error) {
	a := &domain.Alert{ID: domain.NewID(), DeviceID: deviceID, Message: message}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO alerts (id, device_id, message) VALUES ($1, $2, $3) RETURNING sent_at`,
		a.ID, a.DeviceID, a.Message,
	).Scan(&a.SentAt)
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	return a, nil
}

func (r *PostgresAlertsRepo) ListAlerts(ctx context.Context, deviceID domain.ID, limit int) ([]domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, message, sent_at FROM alerts WHERE device_id = $1 ORDER BY sent_at DESC LIMIT $2`,
		deviceID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	out := []domain.Alert{}
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.DeviceID, &a.Message, &a.SentAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// NewPostgresStore wires every repository onto one connection pool.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{
		Owners:       NewPostgresOwnersRepo(db, logger),
		Devices:      NewPostgresDevicesRepo(db, logger),
		Measurements: NewPostgresMeasurementsRepo(db, logger),
		Alerts:       NewPostgresAlertsRepo(db, logger),
	}
}
