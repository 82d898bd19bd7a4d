package domain

import "time"

const (
	// MaxDeviceNameLen bounds Device.Name in characters.
	MaxDeviceNameLen = 50

	DefaultSampleIntervalMs = 5000
	DefaultAlertThreshold   = 25.0
)

// Owner 设备所属账号
type Owner struct {
	ID        ID        `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// Device is a physical unit identified by its hardware address.
// OwnerID == nil means unclaimed. TopicLabel is the owner segment of the
// topics the device last published under; it can differ from OwnerLabel
// after a transfer until the firmware is re-provisioned.
type Device struct {
	ID               ID         `json:"-"`
	Address          Address    `json:"address"`
	OwnerID          *ID        `json:"-"`
	OwnerLabel       string     `json:"-"`
	TopicLabel       string     `json:"-"`
	Name             *string    `json:"name"`
	SampleIntervalMs int        `json:"interval"`
	AlertThreshold   float64    `json:"threshold"`
	LastSeen         time.Time  `json:"last_seen"`
	ClaimedAt        *time.Time `json:"claimed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// IsClaimed 是否已被绑定
func (d *Device) IsClaimed() bool { return d.OwnerID != nil }

// OwnedBy reports whether ownerID currently holds the claim.
func (d *Device) OwnedBy(ownerID ID) bool {
	return d.OwnerID != nil && *d.OwnerID == ownerID
}

// ClaimStatus is the outcome of a successful claim.
type ClaimStatus string

const (
	ClaimClaimed      ClaimStatus = "claimed"
	ClaimAlreadyOwned ClaimStatus = "already-owned"
)

// DeviceConfigUpdate carries the remote-configurable fields; nil = unchanged.
type DeviceConfigUpdate struct {
	SampleIntervalMs *int
	AlertThreshold   *float64
}

// Empty reports whether no field was supplied.
func (u DeviceConfigUpdate) Empty() bool {
	return u.SampleIntervalMs == nil && u.AlertThreshold == nil
}
