// Package leaderboard ranks challenge results and keeps them in sync
// between the remote backend and local storage.
package leaderboard

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/playperu/geodrive/internal/geo"
)

type ChallengeType string

const (
	Flower    ChallengeType = "flower"
	PaintTown ChallengeType = "painttown"
)

// ChallengeTypes lists every known type.
var ChallengeTypes = []ChallengeType{Flower, PaintTown}

func ParseChallengeType(s string) (ChallengeType, bool) {
	switch ChallengeType(strings.ToLower(strings.TrimSpace(s))) {
	case Flower:
		return Flower, true
	case PaintTown:
		return PaintTown, true
	}
	return "", false
}

// Capacity is how many entries a leaderboard keeps.
const Capacity = 10

const anonymous = "Anonymous"

var ErrInvalidEntry = errors.New("invalid leaderboard entry")

// Entry is one ranked result. Flower entries always carry TimeMs; paint-town
// entries carry PaintedBuildings and/or PaintedPct (TimeMs is the run
// duration when known).
type Entry struct {
	ID               string        `json:"id"`
	ChallengeType    ChallengeType `json:"challengeType"`
	Player           string        `json:"player"`
	TimeMs           *int64        `json:"timeMs"`
	PaintedPct       *float64      `json:"paintedPct"`
	PaintedBuildings int           `json:"paintedBuildings"`
	TotalBuildings   int           `json:"totalBuildings"`
	Location         string        `json:"location"`
	Lat              float64       `json:"lat"`
	Lon              float64       `json:"lon"`
	Mode             string        `json:"mode"`
	FoundAt          string        `json:"foundAtIso"`
}

// Raw is an entry as found in storage or on the wire, before validation.
type Raw struct {
	ID               string   `json:"id"`
	ChallengeType    string   `json:"challengeType"`
	Player           string   `json:"player"`
	TimeMs           *float64 `json:"timeMs"`
	PaintedPct       *float64 `json:"paintedPct"`
	PaintedBuildings *float64 `json:"paintedBuildings"`
	TotalBuildings   *float64 `json:"totalBuildings"`
	Location         string   `json:"location"`
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
	Mode             string   `json:"mode"`
	FoundAt          string   `json:"foundAtIso"`
}

func present(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func nonNegative(v *float64) bool { return present(v) && *v >= 0 }

// Upper bounds for numbers stored as integers.
const (
	maxTimeMs = 1 << 53
	maxCount  = math.MaxInt32
)

// count reports whether v is a usable building count.
func count(v *float64) bool { return nonNegative(v) && *v <= maxCount }

func duration(v *float64) bool { return present(v) && *v > 0 && *v <= maxTimeMs }

func coord(v *float64) float64 {
	if !present(v) {
		return 0
	}
	return geo.Round6(*v)
}

// Normalize validates raw as an entry of type ct. Records missing the
// numbers their type needs, or tagged with another type, are rejected.
func Normalize(ct ChallengeType, raw Raw) (Entry, bool) {
	if raw.ChallengeType != "" {
		got, ok := ParseChallengeType(raw.ChallengeType)
		if !ok || got != ct {
			return Entry{}, false
		}
	}

	e := Entry{
		ID:            strings.TrimSpace(raw.ID),
		ChallengeType: ct,
		Player:        strings.TrimSpace(raw.Player),
		Location:      strings.TrimSpace(raw.Location),
		Lat:           coord(raw.Lat),
		Lon:           coord(raw.Lon),
		Mode:          strings.TrimSpace(raw.Mode),
		FoundAt:       strings.TrimSpace(raw.FoundAt),
	}
	if e.Player == "" {
		e.Player = anonymous
	}
	if count(raw.TotalBuildings) {
		e.TotalBuildings = int(*raw.TotalBuildings)
	}

	switch ct {
	case Flower:
		if !duration(raw.TimeMs) {
			return Entry{}, false
		}
		ms := int64(math.Round(*raw.TimeMs))
		e.TimeMs = &ms
	case PaintTown:
		if present(raw.PaintedBuildings) && *raw.PaintedBuildings > maxCount {
			return Entry{}, false
		}
		hasCount, hasPct := count(raw.PaintedBuildings), nonNegative(raw.PaintedPct)
		if !hasCount && !hasPct {
			return Entry{}, false
		}
		if hasCount {
			e.PaintedBuildings = int(*raw.PaintedBuildings)
		}
		if hasPct {
			pct := *raw.PaintedPct
			e.PaintedPct = &pct
		}
		if duration(raw.TimeMs) {
			ms := int64(math.Round(*raw.TimeMs))
			e.TimeMs = &ms
		}
	default:
		return Entry{}, false
	}
	return e, true
}

// Raw converts e back to its unvalidated form.
func (e Entry) Raw() Raw {
	f := func(v float64) *float64 { return &v }
	r := Raw{
		ID:               e.ID,
		ChallengeType:    string(e.ChallengeType),
		Player:           e.Player,
		PaintedPct:       e.PaintedPct,
		PaintedBuildings: f(float64(e.PaintedBuildings)),
		TotalBuildings:   f(float64(e.TotalBuildings)),
		Location:         e.Location,
		Lat:              f(e.Lat),
		Lon:              f(e.Lon),
		Mode:             e.Mode,
		FoundAt:          e.FoundAt,
	}
	if e.TimeMs != nil {
		r.TimeMs = f(float64(*e.TimeMs))
	}
	return r
}

// Validate re-runs normalization over an already constructed entry.
func (e Entry) Validate() (Entry, error) {
	n, ok := Normalize(e.ChallengeType, e.Raw())
	if !ok {
		return Entry{}, ErrInvalidEntry
	}
	return n, nil
}

// DecodeRecords normalizes each record, skipping any that do not decode.
func DecodeRecords(ct ChallengeType, records []json.RawMessage) []Entry {
	out := make([]Entry, 0, len(records))
	for _, rec := range records {
		var raw Raw
		if err := json.Unmarshal(rec, &raw); err != nil {
			continue
		}
		if e, ok := Normalize(ct, raw); ok {
			out = append(out, e)
		}
	}
	return out
}

// DecodeList parses a stored JSON array. Corrupt data yields an empty list.
func DecodeList(ct ChallengeType, data []byte) []Entry {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return []Entry{}
	}
	return DecodeRecords(ct, records)
}
