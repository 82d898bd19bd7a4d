package repository

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

// MaxQueryLimit bounds every measurement scan.
const MaxQueryLimit = 5000

// OwnersRepository 账号 Repository
type OwnersRepository interface {
	// GetOrCreateOwner is idempotent; a concurrent insert of the same label
	// resolves to the row that won.
	GetOrCreateOwner(ctx context.Context, label string) (domain.ID, error)
}

// DevicesRepository 设备 Repository
//
// Every owner-scoped mutation is a single conditional statement; the outcome
// is classified afterwards (ErrNotFound / ErrPermissionDenied / ErrOwnershipConflict).
type DevicesRepository interface {
	// UpsertFromHandshake touches last_seen of an existing device, or inserts
	// a new one claimed by ownerID. It never changes an existing claim.
	// label is the topic prefix the device announced itself under.
	UpsertFromHandshake(ctx context.Context, ownerID domain.ID, label string, addr domain.Address) (*domain.Device, error)
	GetByAddress(ctx context.Context, addr domain.Address) (*domain.Device, error)
	ListByOwner(ctx context.Context, ownerID domain.ID) ([]*domain.Device, error)

	Claim(ctx context.Context, ownerID domain.ID, addr domain.Address) (domain.ClaimStatus, error)
	// Unbind releases the claim and clears the device name.
	Unbind(ctx context.Context, ownerID domain.ID, addr domain.Address) error
	UpdateConfig(ctx context.Context, ownerID domain.ID, addr domain.Address, upd domain.DeviceConfigUpdate) (*domain.Device, error)
	// Rename sets the name; nil clears it.
	Rename(ctx context.Context, ownerID domain.ID, addr domain.Address, name *string) (*domain.Device, error)
	// DeleteDevice removes the device with its measurements and alerts.
	DeleteDevice(ctx context.Context, ownerID domain.ID, addr domain.Address) error
}

// MeasurementsRepository 测量数据 Repository
type MeasurementsRepository interface {
	// Append stamps the device's last_seen and stores the reading attributed
	// to the device's owner at that instant, atomically.
	Append(ctx context.Context, m domain.NewMeasurement) (*domain.Measurement, error)
	Query(ctx context.Context, q domain.MeasurementQuery) ([]domain.Measurement, error)
}

// AlertsRepository 告警记录 Repository
type AlertsRepository interface {
	InsertAlert(ctx context.Context, deviceID domain.ID, message string) (*domain.Alert, error)
	ListAlerts(ctx context.Context, deviceID domain.ID, limit int) ([]domain.Alert, error)
}

// Store groups the repositories a service process needs.
type Store struct {
	Owners       OwnersRepository
	Devices      DevicesRepository
	Measurements MeasurementsRepository
	Alerts       AlertsRepository
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}

// isUniqueViolation reports a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
