// internal/workers/matching/profiles/profiles.go

// Package profiles resolves the diner profiles a job refers to, either inline
// in the job variables or by ID through the profile store, and maps failures
// onto the worker error taxonomy.
package profiles

import (
	"context"
	stderrors "errors"
	"fmt"

	"diner-matching/internal/common/errors"
	"diner-matching/internal/models"
	"diner-matching/internal/store"
)

// Resolve returns inline when set, otherwise loads id from s. Inline profiles
// are validated; stored ones are trusted.
func Resolve(ctx context.Context, s store.ProfileStore, inline *models.DinerProfile, id string) (*models.DinerProfile, error) {
	if inline != nil {
		if err := inline.Validate(); err != nil {
			return nil, errors.NewInvalidProfileError(err)
		}
		return inline, nil
	}
	if id == "" {
		return nil, errors.NewInvalidInputError("either a profile or an id is required")
	}
	if s == nil {
		return nil, errors.NewInvalidInputError("profile store unavailable, pass profiles inline")
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, StoreError(ctx, err, id)
	}
	return p, nil
}

// ResolveMany is Resolve for lists. Inline lists win over ID lists; a nil
// inline list with no IDs resolves to an empty list. A list naming the same
// diner twice is rejected.
func ResolveMany(ctx context.Context, s store.ProfileStore, inline []models.DinerProfile, ids []string) ([]models.DinerProfile, error) {
	if inline != nil {
		if err := ValidateAll(inline); err != nil {
			return nil, err
		}
		return inline, nil
	}
	if len(ids) == 0 {
		return []models.DinerProfile{}, nil
	}
	if err := DistinctIDs(ids); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.NewInvalidInputError("profile store unavailable, pass profiles inline")
	}

	list, err := s.ListByIDs(ctx, ids)
	if err != nil {
		return nil, StoreError(ctx, err, "")
	}
	return list, nil
}

// ValidateAll validates every profile, stopping at the first failure, then
// checks that no ID appears twice.
func ValidateAll(list []models.DinerProfile) error {
	ids := make([]string, len(list))
	for i := range list {
		if err := list[i].Validate(); err != nil {
			return errors.NewInvalidProfileError(err)
		}
		ids[i] = list[i].ID
	}
	return DistinctIDs(ids)
}

// DistinctIDs returns an InvalidInput error naming the first repeated ID.
func DistinctIDs(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return errors.NewInvalidInputError(fmt.Sprintf("diner %q listed more than once", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

// StoreError maps a store failure to a StandardError. id names the diner for
// single lookups and may be empty.
func StoreError(ctx context.Context, err error, id string) error {
	var missing *store.MissingProfilesError
	switch {
	case stderrors.As(err, &missing):
		return errors.NewProfileNotFoundError(missing.IDs[0]).WithMetadata("missingIds", missing.IDs)
	case stderrors.Is(err, store.ErrProfileNotFound):
		return errors.NewProfileNotFoundError(id)
	case ctx.Err() != nil:
		return errors.NewTimeoutError("profile lookup", err)
	default:
		return errors.NewProfileLookupFailedError(err)
	}
}
