package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hubconsole/hubconsole-go/pkg/persistence"
	"github.com/hubconsole/hubconsole-go/pkg/ttl"
)

// TTLAPI converts command time-to-live input.
type TTLAPI struct {
	prefs  Preferences
	logger *slog.Logger
}

// NewTTLAPI creates a new ttl API handler. prefs may be nil; the chosen
// unit is then not remembered.
func NewTTLAPI(prefs Preferences, logger *slog.Logger) *TTLAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &TTLAPI{prefs: prefs, logger: logger}
}

// HandleConvert handles GET /api/v1/ttl?value=&unit=.
//
// A value with a unit suffix ("1.5s", "∞") is parsed as is. A bare number
// is read in unit, or in the last unit used when unit is omitted.
func (t *TTLAPI) HandleConvert(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	raw := strings.TrimSpace(q.Get("value"))
	if raw == "" {
		writeJSONError(w, http.StatusBadRequest, "value is required", "")
		return
	}

	var (
		value ttl.TTL
		err   error
	)
	if number, perr := strconv.ParseFloat(raw, 64); perr == nil {
		unit, uerr := t.unit(q.Get("unit"))
		if uerr != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid unit", uerr.Error())
			return
		}
		value, err = ttl.New(number, unit)
	} else {
		value, err = ttl.Parse(raw)
	}
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid time-to-live", err.Error())
		return
	}

	normalized, unit := ttl.Normalize(int64(value))
	writeJSONResponse(w, http.StatusOK, TTLResponse{
		Nanoseconds: int64(value),
		Value:       normalized,
		Unit:        unit.String(),
		Display:     value.String(),
		Infinite:    value.Infinite(),
		Query:       value.Query(),
	})
}

// unit resolves the unit of a bare number and remembers an explicit one.
func (t *TTLAPI) unit(name string) (ttl.Unit, error) {
	if name != "" {
		u, err := ttl.ParseUnit(name)
		if err != nil {
			return "", err
		}
		if t.prefs != nil {
			if err := t.prefs.SetPreference(persistence.PrefTTLUnit, u.String()); err != nil {
				t.logger.Debug("remember ttl unit", "unit", u.String(), "error", err)
			}
		}
		return u, nil
	}

	if t.prefs != nil {
		if saved, ok, err := t.prefs.Preference(persistence.PrefTTLUnit); err == nil && ok {
			if u, err := ttl.ParseUnit(saved); err == nil {
				return u, nil
			}
		}
	}
	return ttl.Seconds, nil
}
