package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"videodrome/internal/services"
)

// Status is the lifecycle state of an ingest record.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

var (
	// ErrInvalidTransition is returned when an update would move a record
	// backwards or between terminal states.
	ErrInvalidTransition = fmt.Errorf("%w: invalid ingest status transition", services.ErrValidation)
	// ErrRecordNotFound is returned when no record has the requested id.
	ErrRecordNotFound = fmt.Errorf("%w: ingest record", services.ErrNotFound)
)

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusSuccess:
		return StatusSuccess, nil
	case StatusFailed:
		return StatusFailed, nil
	default:
		return "", errors.New("unknown status " + value + " (want pending, success or failed)")
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// CanTransition reports whether from -> to is a valid forward move.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.IsTerminal()
}

// Record is one row of the audit log.
type Record struct {
	ID              int64          `json:"id"`
	SourcePath      string         `json:"source_path"`
	DestinationPath string         `json:"destination_path"`
	Status          Status         `json:"status"`
	CatalogID       int64          `json:"catalog_id,omitempty"`
	MediaKind       string         `json:"media_kind,omitempty"`
	EpisodeKey      string         `json:"episode_key,omitempty"`
	Confidence      float64        `json:"confidence"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewRecord describes an ingest attempt about to start.
type NewRecord struct {
	SourcePath      string
	DestinationPath string
	CatalogID       int64
	MediaKind       string
	EpisodeKey      string
	Confidence      float64
	Metadata        map[string]any
}

// Outcome resolves a PENDING record.
type Outcome struct {
	Status          Status
	DestinationPath string
	ErrorMessage    string
}

// DuplicateQuery identifies content that may already be in the library.
// EpisodeKey is empty for movies.
type DuplicateQuery struct {
	CatalogID  int64
	MediaKind  string
	EpisodeKey string
	SourcePath string
}

// Filter narrows List results. Zero values are ignored.
type Filter struct {
	Status    Status
	CatalogID int64
	MediaKind string
	Limit     int
}

// Stats summarizes the audit log.
type Stats struct {
	Total             int            `json:"total"`
	ByStatus          map[Status]int `json:"by_status"`
	ByKind            map[string]int `json:"by_kind"`
	AverageConfidence float64        `json:"average_confidence"`
}
