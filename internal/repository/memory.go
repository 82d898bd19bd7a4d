package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

// MemoryStore implements every repository in process memory.
// Used when DB_ENABLED=false and by the service tests. One mutex serializes
// all operations, which gives the same atomicity as the Postgres statements.
type MemoryStore struct {
	mu sync.Mutex

	owners       map[domain.ID]domain.Owner
	ownerByLabel map[string]domain.ID

	devices      map[domain.ID]*domain.Device
	deviceByAddr map[domain.Address]domain.ID
	measurements []domain.Measurement
	alerts       []domain.Alert

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		owners:       map[domain.ID]domain.Owner{},
		ownerByLabel: map[string]domain.ID{},
		devices:      map[domain.ID]*domain.Device{},
		deviceByAddr: map[domain.Address]domain.ID{},
		now:          time.Now,
	}
}

// Store exposes the memory store through the repository interfaces.
func (s *MemoryStore) Store() *Store {
	return &Store{Owners: s, Devices: s, Measurements: s, Alerts: s}
}

// ---- owners ----

func (s *MemoryStore) GetOrCreateOwner(_ context.Context, label string) (domain.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.ownerByLabel[label]; ok {
		return id, nil
	}
	o := domain.Owner{ID: domain.NewID(), Label: label, CreatedAt: s.now()}
	s.owners[o.ID] = o
	s.ownerByLabel[label] = o.ID
	return o.ID, nil
}

// ---- devices ----

func (s *MemoryStore) UpsertFromHandshake(_ context.Context, ownerID domain.ID, label string, addr domain.Address) (*domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if id, ok := s.deviceByAddr[addr]; ok {
		d := s.devices[id]
		d.LastSeen = now
		d.TopicLabel = label
		return s.copyDevice(d), nil
	}

	owner := ownerID
	d := &domain.Device{
		ID:               domain.NewID(),
		Address:          addr,
		OwnerID:          &owner,
		TopicLabel:       label,
		SampleIntervalMs: domain.DefaultSampleIntervalMs,
		AlertThreshold:   domain.DefaultAlertThreshold,
		LastSeen:         now,
		ClaimedAt:        &now,
		CreatedAt:        now,
	}
	s.devices[d.ID] = d
	s.deviceByAddr[addr] = d.ID
	return s.copyDevice(d), nil
}

func (s *MemoryStore) GetByAddress(_ context.Context, addr domain.Address) (*domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deviceLocked(addr)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.copyDevice(d), nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID domain.ID) ([]*domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*domain.Device{}
	for _, d := range s.devices {
		if d.OwnedBy(ownerID) {
			out = append(out, s.copyDevice(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (s *MemoryStore) Claim(_ context.Context, ownerID domain.ID, addr domain.Address) (domain.ClaimStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deviceLocked(addr)
	if !ok {
		return "", domain.ErrNotFound
	}
	switch {
	case d.OwnerID == nil:
		owner, now := ownerID, s.now()
		d.OwnerID = &owner
		d.ClaimedAt = &now
		return domain.ClaimClaimed, nil
	case *d.OwnerID == ownerID:
		return domain.ClaimAlreadyOwned, nil
	default:
		return "", domain.ErrOwnershipConflict
	}
}

func (s *MemoryStore) Unbind(_ context.Context, ownerID domain.ID, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.ownedLocked(ownerID, addr)
	if err != nil {
		return err
	}
	d.OwnerID = nil
	d.Name = nil
	d.ClaimedAt = nil
	return nil
}

func (s *MemoryStore) UpdateConfig(_ context.Context, ownerID domain.ID, addr domain.Address, upd domain.DeviceConfigUpdate) (*domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.ownedLocked(ownerID, addr)
	if err != nil {
		return nil, err
	}
	if upd.SampleIntervalMs != nil {
		d.SampleIntervalMs = *upd.SampleIntervalMs
	}
	if upd.AlertThreshold != nil {
		d.AlertThreshold = *upd.AlertThreshold
	}
	return s.copyDevice(d), nil
}

func (s *MemoryStore) Rename(_ context.Context, ownerID domain.ID, addr domain.Address, name *string) (*domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.ownedLocked(ownerID, addr)
	if err != nil {
		return nil, err
	}
	if name == nil {
		d.Name = nil
	} else {
		n := *name
		d.Name = &n
	}
	return s.copyDevice(d), nil
}

func (s *MemoryStore) DeleteDevice(_ context.Context, ownerID domain.ID, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.ownedLocked(ownerID, addr)
	if err != nil {
		return err
	}

	kept := s.measurements[:0]
	for _, m := range s.measurements {
		if m.DeviceID != d.ID {
			kept = append(kept, m)
		}
	}
	s.measurements = kept

	keptAlerts := s.alerts[:0]
	for _, a := range s.alerts {
		if a.DeviceID != d.ID {
			keptAlerts = append(keptAlerts, a)
		}
	}
	s.alerts = keptAlerts

	delete(s.devices, d.ID)
	delete(s.deviceByAddr, addr)
	return nil
}

// ---- measurements ----

func (s *MemoryStore) Append(_ context.Context, in domain.NewMeasurement) (*domain.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[in.DeviceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	now := s.now()
	d.LastSeen = now

	m := domain.Measurement{
		ID:         domain.NewID(),
		DeviceID:   in.DeviceID,
		Kind:       in.Kind,
		Value:      in.Value,
		Timestamp:  in.Timestamp,
		ReceivedAt: now,
	}
	if d.OwnerID != nil {
		owner := *d.OwnerID
		m.OwnerID = &owner
	}
	s.measurements = append(s.measurements, m)
	out := m
	return &out, nil
}

func (s *MemoryStore) Query(_ context.Context, q domain.MeasurementQuery) ([]domain.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kinds := map[domain.SensorKind]bool{}
	for _, k := range q.Kinds {
		kinds[k] = true
	}

	out := []domain.Measurement{}
	for _, m := range s.measurements {
		switch {
		case m.DeviceID != q.DeviceID,
			m.OwnerID == nil || *m.OwnerID != q.OwnerID,
			len(kinds) > 0 && !kinds[m.Kind],
			q.From > 0 && m.Timestamp < q.From,
			q.To > 0 && m.Timestamp > q.To,
			q.MinValue != nil && m.Value <= *q.MinValue:
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.Order == domain.OldestFirst {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].Timestamp > out[j].Timestamp
	})
	if limit := clampLimit(q.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- alerts ----

func (s *MemoryStore) InsertAlert(_ context.Context, deviceID domain.ID, message string) (*domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[deviceID]; !ok {
		return nil, domain.ErrNotFound
	}
	a := domain.Alert{ID: domain.NewID(), DeviceID: deviceID, Message: message, SentAt: s.now()}
	s.alerts = append(s.alerts, a)
	return &a, nil
}

func (s *MemoryStore) ListAlerts(_ context.Context, deviceID domain.ID, limit int) ([]domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Alert{}
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if s.alerts[i].DeviceID == deviceID {
			out = append(out, s.alerts[i])
		}
	}
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- helpers (caller holds mu) ----

func (s *MemoryStore) deviceLocked(addr domain.Address) (*domain.Device, bool) {
	id, ok := s.deviceByAddr[addr]
	if !ok {
		return nil, false
	}
	return s.devices[id], true
}

func (s *MemoryStore) ownedLocked(ownerID domain.ID, addr domain.Address) (*domain.Device, error) {
	d, ok := s.deviceLocked(addr)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !d.OwnedBy(ownerID) {
		return nil, domain.ErrPermissionDenied
	}
	return d, nil
}

// copyDevice detaches the result from the stored pointer and fills OwnerLabel.
func (s *MemoryStore) copyDevice(d *domain.Device) *domain.Device {
	c := *d
	if d.OwnerID != nil {
		owner := *d.OwnerID
		c.OwnerID = &owner
		c.OwnerLabel = s.owners[owner].Label
	}
	if d.Name != nil {
		n := *d.Name
		c.Name = &n
	}
	if d.ClaimedAt != nil {
		t := *d.ClaimedAt
		c.ClaimedAt = &t
	}
	return &c
}
