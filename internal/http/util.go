package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

const (
	maxBodyBytes = 64 << 10

	// OwnerHeader carries the authenticated owner id, set by the auth gateway.
	OwnerHeader = "X-Owner-ID"
)

var errNoOwner = errors.New("missing or invalid " + OwnerHeader)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", domain.ErrValidation, s)
	}
	return i, nil
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: invalid JSON body", domain.ErrValidation)
	}
	return nil
}

func ownerFromReq(r *http.Request) (domain.ID, error) {
	raw := strings.TrimSpace(r.Header.Get(OwnerHeader))
	if raw == "" {
		return domain.NilID, errNoOwner
	}
	id, err := domain.ParseID(raw)
	if err != nil {
		return domain.NilID, errNoOwner
	}
	return id, nil
}

func addressFromReq(r *http.Request) (domain.Address, error) {
	return domain.NormalizeAddress(r.PathValue("addr"))
}

// parseDate accepts RFC3339 or a bare YYYY-MM-DD (UTC midnight). Empty is nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("%w: date %q, want RFC3339 or YYYY-MM-DD", domain.ErrValidation, s)
}

func parseFloatPtr(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", domain.ErrValidation, s)
	}
	return &v, nil
}

func dateRange(r *http.Request) (start, end *time.Time, err error) {
	q := r.URL.Query()
	if start, err = parseDate(q.Get("start_date")); err != nil {
		return nil, nil, err
	}
	if end, err = parseDate(q.Get("end_date")); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}
