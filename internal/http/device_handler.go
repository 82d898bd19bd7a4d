package httpapi

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/service"
)

// DeviceHandler 设备管理 Handler
type DeviceHandler struct {
	provisioning *service.ProvisioningService
	analytics    *service.AnalyticsService
	alerts       *service.AlertService
	logger       *zap.Logger
}

func NewDeviceHandler(
	provisioning *service.ProvisioningService,
	analytics *service.AnalyticsService,
	alerts *service.AlertService,
	logger *zap.Logger,
) *DeviceHandler {
	return &DeviceHandler{
		provisioning: provisioning,
		analytics:    analytics,
		alerts:       alerts,
		logger:       logger,
	}
}

// ListDevices GET /api/v1/devices
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromReq(r)
	if err != nil {
		writeError(w, h.logger, "ListDevices", err)
		return
	}
	list, err := h.provisioning.ListDevices(r.Context(), owner)
	if err != nil {
		writeError(w, h.logger, "ListDevices", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// ClaimDevice POST /api/v1/devices/claim {address}
func (h *DeviceHandler) ClaimDevice(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromReq(r)
	if err != nil {
		writeError(w, h.logger, "ClaimDevice", err)
		return
	}
	var body struct {
		Address string `json:"address"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "ClaimDevice", err)
		return
	}
	addr, err := domain.NormalizeAddress(body.Address)
	if err != nil {
		writeError(w, h.logger, "ClaimDevice", err)
		return
	}

	status, err := h.provisioning.ClaimDevice(r.Context(), owner, addr)
	if err != nil {
		writeError(w, h.logger, "ClaimDevice", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"address": addr,
		"status":  status,
	}))
}

// DeleteDevice DELETE /api/v1/devices/{addr}[?purge=true]
// Without purge the device is only unbound; with purge it is removed with its history.
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	owner, addr, ok := h.ownerAndAddress(w, r, "DeleteDevice")
	if !ok {
		return
	}
	purge, _ := strconv.ParseBool(r.URL.Query().Get("purge"))

	if purge {
		err := h.provisioning.DeleteDevice(r.Context(), owner, addr)
		if err != nil {
			writeError(w, h.logger, "DeleteDevice", err)
			return
		}
	} else if err := h.provisioning.UnbindDevice(r.Context(), owner, addr); err != nil {
		writeError(w, h.logger, "UnbindDevice", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// RenameDevice PUT /api/v1/devices/{addr}/name {name}
func (h *DeviceHandler) RenameDevice(w http.ResponseWriter, r *http.Request) {
	owner, addr, ok := h.ownerAndAddress(w, r, "RenameDevice")
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "RenameDevice", err)
		return
	}
	d, err := h.provisioning.RenameDevice(r.Context(), owner, addr, body.Name)
	if err != nil {
		writeError(w, h.logger, "RenameDevice", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

// UpdateConfig PUT /api/v1/devices/{addr}/config {interval, threshold}
func (h *DeviceHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	owner, addr, ok := h.ownerAndAddress(w, r, "UpdateConfig")
	if !ok {
		return
	}
	var body struct {
		Interval  *int     `json:"interval"`
		Threshold *float64 `json:"threshold"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "UpdateConfig", err)
		return
	}
	res, err := h.provisioning.UpdateDeviceConfig(r.Context(), owner, addr, domain.DeviceConfigUpdate{
		SampleIntervalMs: body.Interval,
		AlertThreshold:   body.Threshold,
	})
	if err != nil {
		writeError(w, h.logger, "UpdateConfig", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// ListMeasurements GET /api/v1/devices/{addr}/measurements
func (h *DeviceHandler) ListMeasurements(w http.ResponseWriter, r *http.Request) {
	owner, addr, ok := h.ownerAndAddress(w, r, "ListMeasurements")
	if !ok {
		return
	}
	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, h.logger, "ListMeasurements", err)
		return
	}
	q := r.URL.Query()
	limit, err := parseInt(q.Get("limit"), 0)
	if err != nil {
		writeError(w, h.logger, "ListMeasurements", err)
		return
	}
	req := service.MeasurementsRequest{
		OwnerID: owner,
		Address: addr,
		Start:   start,
		End:     end,
		Order:   domain.SortOrder(q.Get("order")),
		Limit:   limit,
	}
	if raw := q.Get("kind"); raw != "" {
		kind, err := domain.ParseSensorKind(raw)
		if err != nil {
			writeError(w, h.logger, "ListMeasurements", err)
			return
		}
		req.Kind = &kind
	}

	list, err := h.analytics.QueryMeasurements(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "ListMeasurements", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// SendAlert POST /api/v1/devices/{addr}/alerts {message}
func (h *DeviceHandler) SendAlert(w http.ResponseWriter, r *http.Request) {
	owner, addr, ok := h.ownerAndAddress(w, r, "SendAlert")
	if !ok {
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "SendAlert", err)
		return
	}
	a, err := h.alerts.SendAlert(r.Context(), owner, addr, body.Message)
	if err != nil {
		writeError(w, h.logger, "SendAlert", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// ListAlerts GET /api/v1/devices/{addr}/alerts
func (h *DeviceHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	owner, addr, ok := h.ownerAndAddress(w, r, "ListAlerts")
	if !ok {
		return
	}
	limit, err := parseInt(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, h.logger, "ListAlerts", err)
		return
	}
	list, err := h.alerts.ListAlerts(r.Context(), owner, addr, limit)
	if err != nil {
		writeError(w, h.logger, "ListAlerts", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *DeviceHandler) ownerAndAddress(w http.ResponseWriter, r *http.Request, op string) (domain.ID, domain.Address, bool) {
	owner, err := ownerFromReq(r)
	if err != nil {
		writeError(w, h.logger, op, err)
		return domain.NilID, "", false
	}
	addr, err := addressFromReq(r)
	if err != nil {
		writeError(w, h.logger, op, err)
		return domain.NilID, "", false
	}
	return owner, addr, true
}
