// internal/store/store.go

// Package store loads diner profiles for the workers. It is read-only: the
// matching core never sees it and nothing here writes profiles.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"diner-matching/internal/models"
)

// ErrProfileNotFound is returned when a requested diner does not exist.
var ErrProfileNotFound = errors.New("diner profile not found")

// ProfileStore is a read-only source of diner profiles.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*models.DinerProfile, error)
	// ListByCity returns up to limit diners whose location city matches,
	// ordered by ID.
	ListByCity(ctx context.Context, city string, limit int) ([]models.DinerProfile, error)
	// ListByIDs returns the profiles in the order of ids. Missing IDs yield
	// a *MissingProfilesError alongside the profiles that were found.
	ListByIDs(ctx context.Context, ids []string) ([]models.DinerProfile, error)
}

// CandidateSource returns a candidate pool for a city.
type CandidateSource interface {
	ListByCity(ctx context.Context, city string, limit int) ([]models.DinerProfile, error)
}

// MissingProfilesError lists IDs that ListByIDs could not resolve.
type MissingProfilesError struct {
	IDs []string
}

func (e *MissingProfilesError) Error() string {
	return fmt.Sprintf("%s: %s", ErrProfileNotFound, strings.Join(e.IDs, ", "))
}

func (e *MissingProfilesError) Is(target error) bool {
	return target == ErrProfileNotFound
}

// orderByIDs arranges found profiles in the order of ids, repeating a
// profile when its ID repeats, and reports the IDs with no profile.
func orderByIDs(ids []string, found map[string]models.DinerProfile) ([]models.DinerProfile, error) {
	out := make([]models.DinerProfile, 0, len(ids))
	var missing []string
	for _, id := range ids {
		p, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, p)
	}
	if len(missing) > 0 {
		return out, &MissingProfilesError{IDs: missing}
	}
	return out, nil
}

// uniqueIDs drops duplicate and empty IDs, keeping first occurrence order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
