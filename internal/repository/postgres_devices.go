package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

type PostgresDevicesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresDevicesRepo(db *sql.DB, logger *zap.Logger) *PostgresDevicesRepo {
	return &PostgresDevicesRepo{db: db, logger: logger}
}

const selectDevice = `
	SELECT
		d.id,
		d.address,
		d.owner_id,
		COALESCE(o.label, ''),
		d.topic_label,
		d.name,
		d.sample_interval_ms,
		d.alert_threshold,
		d.last_seen,
		d.claimed_at,
		d.created_at
	FROM devices d
	LEFT JOIN owners o ON o.id = d.owner_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*domain.Device, error) {
	var (
		d         domain.Device
		addr      string
		ownerID   uuid.NullUUID
		name      sql.NullString
		claimedAt sql.NullTime
	)
	if err := row.Scan(&d.ID, &addr, &ownerID, &d.OwnerLabel, &d.TopicLabel, &name,
		&d.SampleIntervalMs, &d.AlertThreshold, &d.LastSeen, &claimedAt, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Address = domain.Address(addr)
	if ownerID.Valid {
		id := ownerID.UUID
		d.OwnerID = &id
	}
	if name.Valid {
		n := name.String
		d.Name = &n
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		d.ClaimedAt = &t
	}
	return &d, nil
}

func (r *PostgresDevicesRepo) GetByAddress(ctx context.Context, addr domain.Address) (*domain.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, selectDevice+` WHERE d.address = $1`, addr.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select device %s: %w", addr, err)
	}
	return d, nil
}

func (r *PostgresDevicesRepo) ListByOwner(ctx context.Context, ownerID domain.ID) ([]*domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, selectDevice+` WHERE d.owner_id = $1 ORDER BY d.claimed_at, d.address`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	out := []*domain.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresDevicesRepo) UpsertFromHandshake(ctx context.Context, ownerID domain.ID, label string, addr domain.Address) (*domain.Device, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE devices SET last_seen = now(), topic_label = $2 WHERE address = $1`,
		addr.String(), label)
	if err != nil {
		return nil, fmt.Errorf("touch device %s: %w", addr, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return r.GetByAddress(ctx, addr)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO devices (id, address, owner_id, topic_label, sample_interval_ms, alert_threshold, last_seen, claimed_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())`,
		domain.NewID(), addr.String(), ownerID, label, domain.DefaultSampleIntervalMs, domain.DefaultAlertThreshold,
	)
	if err != nil && !isUniqueViolation(err) {
		return nil, fmt.Errorf("insert device %s: %w", addr, err)
	}
	if err == nil {
		r.logger.Info("Device registered",
			zap.String("address", addr.String()),
			zap.String("owner_id", ownerID.String()),
		)
	}
	return r.GetByAddress(ctx, addr)
}

func (r *PostgresDevicesRepo) Claim(ctx context.Context, ownerID domain.ID, addr domain.Address) (domain.ClaimStatus, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE devices SET owner_id = $1, claimed_at = now() WHERE address = $2 AND owner_id IS NULL`,
		ownerID, addr.String())
	if err != nil {
		return "", fmt.Errorf("claim device %s: %w", addr, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return domain.ClaimClaimed, nil
	}

	current, err := r.currentOwner(ctx, addr)
	if err != nil {
		return "", err
	}
	if current.Valid && current.UUID == ownerID {
		return domain.ClaimAlreadyOwned, nil
	}
	return "", domain.ErrOwnershipConflict
}

func (r *PostgresDevicesRepo) Unbind(ctx context.Context, ownerID domain.ID, addr domain.Address) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE devices SET owner_id = NULL, name = NULL, claimed_at = NULL WHERE address = $1 AND owner_id = $2`,
		addr.String(), ownerID)
	if err != nil {
		return fmt.Errorf("unbind device %s: %w", addr, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.classifyMiss(ctx, addr)
}

func (r *PostgresDevicesRepo) UpdateConfig(ctx context.Context, ownerID domain.ID, addr domain.Address, upd domain.DeviceConfigUpdate) (*domain.Device, error) {
	var interval sql.NullInt64
	if upd.SampleIntervalMs != nil {
		interval = sql.NullInt64{Int64: int64(*upd.SampleIntervalMs), Valid: true}
	}
	var threshold sql.NullFloat64
	if upd.AlertThreshold != nil {
		threshold = sql.NullFloat64{Float64: *upd.AlertThreshold, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE devices
		SET sample_interval_ms = COALESCE($3, sample_interval_ms),
		    alert_threshold    = COALESCE($4, alert_threshold)
		WHERE address = $1 AND owner_id = $2`,
		addr.String(), ownerID, interval, threshold)
	if err != nil {
		return nil, fmt.Errorf("update config %s: %w", addr, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, r.classifyMiss(ctx, addr)
	}
	return r.GetByAddress(ctx, addr)
}

func (r *PostgresDevicesRepo) Rename(ctx context.Context, ownerID domain.ID, addr domain.Address, name *string) (*domain.Device, error) {
	var n sql.NullString
	if name != nil {
		n = sql.NullString{String: *name, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE devices SET name = $3 WHERE address = $1 AND owner_id = $2`,
		addr.String(), ownerID, n)
	if err != nil {
		return nil, fmt.Errorf("rename device %s: %w", addr, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, r.classifyMiss(ctx, addr)
	}
	return r.GetByAddress(ctx, addr)
}

func (r *PostgresDevicesRepo) DeleteDevice(ctx context.Context, ownerID domain.ID, addr domain.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete %s: %w", addr, err)
	}
	defer tx.Rollback()

	var (
		deviceID domain.ID
		current  uuid.NullUUID
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, owner_id FROM devices WHERE address = $1 FOR UPDATE`, addr.String(),
	).Scan(&deviceID, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock device %s: %w", addr, err)
	}
	if !current.Valid || current.UUID != ownerID {
		return domain.ErrPermissionDenied
	}

	for _, stmt := range []string{
		`DELETE FROM measurements WHERE device_id = $1`,
		`DELETE FROM alerts WHERE device_id = $1`,
		`DELETE FROM devices WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, deviceID); err != nil {
			return fmt.Errorf("delete device %s: %w", addr, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete %s: %w", addr, err)
	}
	return nil
}

func (r *PostgresDevicesRepo) currentOwner(ctx context.Context, addr domain.Address) (uuid.NullUUID, error) {
	var owner uuid.NullUUID
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM devices WHERE address = $1`, addr.String()).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return owner, domain.ErrNotFound
	}
	if err != nil {
		return owner, fmt.Errorf("select owner of %s: %w", addr, err)
	}
	return owner, nil
}

// classifyMiss explains why an owner-scoped update matched no row.
func (r *PostgresDevicesRepo) classifyMiss(ctx context.Context, addr domain.Address) error {
	if _, err := r.currentOwner(ctx, addr); err != nil {
		return err
	}
	return domain.ErrPermissionDenied
}
