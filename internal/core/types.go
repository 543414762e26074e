package core

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// RiskCategory is the attack-risk rating attached to a shark species.
type RiskCategory string

const (
	RiskUnknown RiskCategory = "Unknown"
	RiskLow     RiskCategory = "Low"
	RiskMedium  RiskCategory = "Medium"
	RiskHigh    RiskCategory = "High"
)

// RiskCategories lists every accepted risk value.
var RiskCategories = []RiskCategory{RiskUnknown, RiskLow, RiskMedium, RiskHigh}

// Valid reports whether r is one of the four accepted risk values.
func (r RiskCategory) Valid() bool {
	switch r {
	case RiskUnknown, RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// CatchRecord is one CSV row after normalization.
//
// Fields use pgtype wrappers so that an absent column (Valid=false) can be
// told apart from a present but empty one. The validator rejects any record
// with an invalid field.
type CatchRecord struct {
	Line    int         // 1-based line in the source file, for error messages
	RawID   string      // _id as it appeared in the file
	ID      pgtype.Int8 // parsed _id, invalid when missing or not an integer
	Name    pgtype.Text // Common Name
	Species pgtype.Text // Species name
	Risk    RiskCategory
	Beach   pgtype.Text // gearBeach
	Area    pgtype.Text // areaName
	Date    pgtype.Text
	Fate    pgtype.Text
}

// Shark is a row of the shark reference table.
type Shark struct {
	ID      int64        `json:"sharkId"`
	Name    string       `json:"name"`
	Species string       `json:"species"`
	Risk    RiskCategory `json:"risk"`
}

// Beach is a row of the beach reference table.
type Beach struct {
	ID   int64  `json:"beachId"`
	Name string `json:"beach"`
	Area string `json:"area"`
}

// NewShark is a shark reference row to insert.
type NewShark struct {
	Name    string
	Species string
	Risk    RiskCategory
}

// NewBeach is a beach reference row to insert.
type NewBeach struct {
	Name string
	Area string
}

// NewCatch is a catch row to insert. SharkID and BeachID are left invalid
// (NULL) when the natural key could not be resolved.
type NewCatch struct {
	SourceID int64
	SharkID  pgtype.Int8
	BeachID  pgtype.Int8
	Date     string
	Fate     string
}

// ImportPhase indicates the current stage of an import.
type ImportPhase string

const (
	PhaseReceived            ImportPhase = "received"
	PhaseNormalized          ImportPhase = "normalized"
	PhaseValidated           ImportPhase = "validated"
	PhaseSharksUpserted      ImportPhase = "sharks_upserted"
	PhaseBeachesUpserted     ImportPhase = "beaches_upserted"
	PhaseIdentifiersResolved ImportPhase = "identifiers_resolved"
	PhaseCatchesInserted     ImportPhase = "catches_inserted"
	PhaseDone                ImportPhase = "done"
	PhaseFailed              ImportPhase = "failed"
)

// ImportResult contains the final result of a successful import.
type ImportResult struct {
	ImportID     string        `json:"importId"`
	FileName     string        `json:"fileName"`
	Rows         int           `json:"rows"`
	AddedSharks  int64         `json:"addedSharks"`
	AddedBeaches int64         `json:"addedBeaches"`
	AddedCatches int64         `json:"addedCatches"`
	ArchiveKey   string        `json:"archiveKey,omitempty"`
	Duration     time.Duration `json:"duration"`
}
