package core

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when an email does not belong to any user.
var ErrUserNotFound = errors.New("user not found")

// ImportStore is the subset of the store the ingestion pipeline writes through.
// It is satisfied both by the store itself and by the handle passed to InTx.
type ImportStore interface {
	// InsertSharks inserts sharks, skipping any whose name already exists,
	// and returns how many rows were created.
	InsertSharks(ctx context.Context, sharks []NewShark) (int64, error)

	// InsertBeaches inserts beaches, skipping any whose beach name already
	// exists, and returns how many rows were created.
	InsertBeaches(ctx context.Context, beaches []NewBeach) (int64, error)

	// SharksByNameAndSpecies returns sharks whose name is in names AND whose
	// species is in species.
	SharksByNameAndSpecies(ctx context.Context, names, species []string) ([]Shark, error)

	// Beaches returns every beach.
	Beaches(ctx context.Context) ([]Beach, error)

	// InsertCatches inserts every catch and returns how many rows were created.
	InsertCatches(ctx context.Context, catches []NewCatch) (int64, error)
}

// ReportStore answers the read-only report queries.
type ReportStore interface {
	ListCatches(ctx context.Context, filter CatchFilter, limit, offset int) ([]CatchRow, int64, error)
	CatchStats(ctx context.Context) (CatchStats, error)
	BeachCatchCounts(ctx context.Context) ([]BeachCount, error)
	SpeciesCatchCounts(ctx context.Context) ([]SpeciesCount, error)
}

// UserStore manages user accounts and their beach warning subscriptions.
type UserStore interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, u NewUser) error
	// UpdateUser and DeleteUser return ErrUserNotFound for unknown emails.
	UpdateUser(ctx context.Context, u UserUpdate) (User, error)
	DeleteUser(ctx context.Context, email string) error
	BeachWarnings(ctx context.Context, email string) ([]Beach, error)
	ReplaceBeachWarnings(ctx context.Context, email string, beachIDs []int64) error
}

// HistoryStore keeps one record per import attempt.
type HistoryStore interface {
	RecordImport(ctx context.Context, rec ImportRecord) error
	ListImports(ctx context.Context, limit int) ([]ImportRecord, error)
}

// ResetScope selects which tables Reset empties.
type ResetScope string

const (
	ResetCatches ResetScope = "catches"
	ResetAll     ResetScope = "all"
)

// Valid reports whether s is a known scope.
func (s ResetScope) Valid() bool {
	return s == ResetCatches || s == ResetAll
}

// Store is everything the service needs from a backend.
type Store interface {
	ImportStore
	ReportStore
	UserStore
	HistoryStore

	// InTx runs fn against a transaction, committing if fn returns nil.
	InTx(ctx context.Context, fn func(ImportStore) error) error

	Migrate(ctx context.Context) error
	Reset(ctx context.Context, scope ResetScope) error
	Ping(ctx context.Context) error
	Close() error
}

// CatchFilter narrows ListCatches. Zero values mean no filter.
type CatchFilter struct {
	BeachID  int64
	Species  string
	DateFrom string // inclusive, compared as text
	DateTo   string // inclusive, compared as text
}

// CatchRow is a catch joined with its shark and beach.
type CatchRow struct {
	CatchID  int64        `json:"catchId"`
	SourceID int64        `json:"sourceId"`
	Date     string       `json:"date"`
	Fate     string       `json:"fate"`
	SharkID  int64        `json:"sharkId"`
	Name     string       `json:"name"`
	Species  string       `json:"species"`
	Risk     RiskCategory `json:"risk"`
	BeachID  int64        `json:"beachId"`
	Beach    string       `json:"beach"`
	Area     string       `json:"area"`
}

// CatchStats holds the headline numbers of the reports page.
type CatchStats struct {
	TotalCatches   int64  `json:"totalCatches"`
	TotalBeaches   int64  `json:"totalBeaches"`
	TotalSharks    int64  `json:"totalSharks"`
	LatestCatch    string `json:"latestCatch"` // empty when there are no catches
	HighRiskSharks int64  `json:"highRiskSharks"`
}

// BeachCount is the number of catches recorded at a beach.
type BeachCount struct {
	BeachID int64  `json:"beachId"`
	Beach   string `json:"beach"`
	Area    string `json:"area"`
	Catches int64  `json:"catches"`
}

// SpeciesCount is the number of catches of one species.
type SpeciesCount struct {
	Species string       `json:"species"`
	Risk    RiskCategory `json:"risk"`
	Catches int64        `json:"catches"`
}

// User is an account as shown to administrators. The password hash is
// never loaded into this type.
type User struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	Surname     string `json:"surname"`
	AccessLevel int    `json:"accessLevel"`
}

// NewUser is an account to create. PasswordHash must already be hashed.
type NewUser struct {
	User
	PasswordHash string
}

// UserUpdate carries the editable fields of an account.
type UserUpdate struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	Surname     string `json:"surname"`
	AccessLevel int    `json:"accessLevel"`
}

// ImportStatus is the outcome of an import attempt.
type ImportStatus string

const (
	ImportSucceeded ImportStatus = "succeeded"
	ImportFailed    ImportStatus = "failed"
)

// ImportRecord is one row of the import history.
type ImportRecord struct {
	ID           string       `json:"id"`
	FileName     string       `json:"fileName"`
	Status       ImportStatus `json:"status"`
	Phase        ImportPhase  `json:"phase"`
	ErrorKind    ErrorKind    `json:"errorKind,omitempty"`
	Rows         int          `json:"rows"`
	AddedSharks  int64        `json:"addedSharks"`
	AddedBeaches int64        `json:"addedBeaches"`
	AddedCatches int64        `json:"addedCatches"`
	DurationMs   int64        `json:"durationMs"`
	IPAddress    string       `json:"ipAddress,omitempty"`
	UserAgent    string       `json:"userAgent,omitempty"`
	ArchiveKey   string       `json:"archiveKey,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}
