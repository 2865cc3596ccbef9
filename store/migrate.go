package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"ciudamos/classify"
	"ciudamos/types"
)

// Version is the envelope version written by this package.
const Version = 1

// TimeLayout is the ISO-8601 form timestamps are stored in.
const TimeLayout = "2006-01-02T15:04:05.000Z"

type envelope struct {
	Version int            `json:"version"`
	Reports []types.Report `json:"reports"`
}

// legacyReport accepts records written by older app versions, whose
// timestamp was either an epoch number or an epoch string.
type legacyReport struct {
	types.Report
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

var legacyStatus = map[string]types.Status{
	"nuevo":       types.StatusNew,
	"new":         types.StatusNew,
	"visto":       types.StatusSeen,
	"seen":        types.StatusSeen,
	"en_proceso":  types.StatusInProgress,
	"en proceso":  types.StatusInProgress,
	"in_progress": types.StatusInProgress,
	"finalizado":  types.StatusDone,
	"resuelto":    types.StatusDone,
	"done":        types.StatusDone,
}

// Migrate decodes a persisted value of any known shape into the current
// record form. It returns the version the data was stored with; legacy bare
// arrays report version 0.
func Migrate(raw []byte) ([]types.Report, int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, Version, nil
	}

	var (
		records []legacyReport
		version int
	)
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, 0, fmt.Errorf("decode legacy reports: %w", err)
		}
	} else {
		var env struct {
			Version int            `json:"version"`
			Reports []legacyReport `json:"reports"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, 0, fmt.Errorf("decode report envelope: %w", err)
		}
		if env.Version > Version {
			return nil, env.Version, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
		}
		version, records = env.Version, env.Reports
	}

	seen := make(map[string]bool, len(records))
	out := make([]types.Report, 0, len(records))
	for i, lr := range records {
		r := normalizeRecord(lr)
		if r.ID == "" {
			r.ID = legacyID(lr, i)
		}
		if seen[r.ID] {
			log.WithField("id", r.ID).Warn("dropping duplicate report id")
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out, version, nil
}

// legacyNamespace seeds the name-based ids of records saved without one.
var legacyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ciudamos:legacy-report"))

// legacyID derives a stable id from the record content and its position, so
// a record keeps its id across loads until the migration is written back.
func legacyID(lr legacyReport, index int) string {
	name := fmt.Sprintf("%d|%g|%g|%s|%s|%s|%s", index, lr.Latitude, lr.Longitude,
		lr.Title, lr.Description, lr.PhotoURI, bytes.TrimSpace(lr.Timestamp))
	return uuid.NewSHA1(legacyNamespace, []byte(name)).String()
}

func normalizeRecord(lr legacyReport) types.Report {
	r := lr.Report
	r.Timestamp = normalizeTimestamp(lr.Timestamp)
	r.Status = normalizeStatus(r.Status)
	if r.Category == "" && r.Title != "" {
		r.Category = classify.NormalizeCategory(r.Title)
	} else if r.Category != "" {
		if c := classify.NormalizeCategory(string(r.Category)); c != "" {
			r.Category = c
		}
	}
	if r.Urgency != "" {
		if u, ok := classify.CanonicalUrgency(string(r.Urgency)); ok {
			r.Urgency = u
		}
	}
	return r
}

func normalizeStatus(s types.Status) types.Status {
	if s == "" {
		return types.StatusNew
	}
	if st, ok := legacyStatus[strings.ToLower(strings.TrimSpace(string(s)))]; ok {
		return st
	}
	log.WithField("status", string(s)).Warn("unknown report status, resetting to NEW")
	return types.StatusNew
}

func normalizeTimestamp(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return FormatTime(epochToTime(n))
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatTime(t)
		}
	}
	return s
}

// epochToTime treats values below 1e11 as seconds and larger ones as milliseconds.
func epochToTime(n float64) time.Time {
	if n < 1e11 {
		return time.UnixMilli(int64(n * 1000))
	}
	return time.UnixMilli(int64(n))
}

// FormatTime renders t in the stored timestamp form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
