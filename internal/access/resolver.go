package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"golang.org/x/sync/singleflight"

	"smartdoor/internal/door/models"
	"smartdoor/internal/platform/config"
	id "smartdoor/pkg/domain"
	dErrors "smartdoor/pkg/domain-errors"
	"smartdoor/pkg/platform/sentinel"
	"smartdoor/pkg/requestcontext"
)

// DoorSource is the slice of the door registry the resolver reads.
type DoorSource interface {
	Get(ctx context.Context, doorID id.DoorID) (*models.Door, error)
	List(ctx context.Context) ([]*models.Door, error)
}

// Resolver answers "which doors may this subject operate" and the narrower
// "may this subject operate this door". Under the auto-provision policy a
// subject with no grants is provisioned a small random selection of doors on
// first query.
type Resolver struct {
	grants Store
	doors  DoorSource
	policy config.AccessPolicy
	limit  int
	logger *slog.Logger

	// provisioning is deduplicated per subject so concurrent first queries
	// produce one grant set, not several.
	group singleflight.Group

	// rng guarded by rngMu; injectable for deterministic tests.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger sets a logger for provisioning events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithRand injects a deterministic randomness source for tests.
func WithRand(rng *rand.Rand) Option {
	return func(r *Resolver) { r.rng = rng }
}

// WithProvisionLimit overrides how many doors fallback provisioning selects.
func WithProvisionLimit(limit int) Option {
	return func(r *Resolver) { r.limit = limit }
}

// NewResolver constructs a Resolver.
func NewResolver(grants Store, doors DoorSource, policy config.AccessPolicy, opts ...Option) (*Resolver, error) {
	if grants == nil {
		return nil, fmt.Errorf("grant store is required")
	}
	if doors == nil {
		return nil, fmt.Errorf("door source is required")
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid access policy %q", policy)
	}

	r := &Resolver{
		grants: grants,
		doors:  doors,
		policy: policy,
		limit:  3,
		logger: slog.Default(),
		rng:    rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ResolveAccessibleDoors returns the doors the subject may operate, each
// annotated with its granted_at. Subjects with explicit grants get exactly
// those doors; subjects with none are provisioned up to the configured limit
// of random doors when the policy allows, and an empty list otherwise.
func (r *Resolver) ResolveAccessibleDoors(ctx context.Context, subjectID id.SubjectID) ([]models.AccessibleDoor, error) {
	grants, err := r.grants.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load access grants")
	}
	if len(grants) > 0 {
		return r.doorsForGrants(ctx, grants)
	}
	if r.policy != config.PolicyAutoProvision {
		return nil, nil
	}
	return r.provision(ctx, subjectID)
}

// Authorize reports whether the subject may command the door: an explicit
// grant allows it, and under the auto-provision policy a subject with zero
// grants passes during that transitional state.
func (r *Resolver) Authorize(ctx context.Context, subjectID id.SubjectID, doorID id.DoorID) (bool, error) {
	granted, err := r.grants.Exists(ctx, subjectID, doorID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check access grant")
	}
	if granted {
		return true, nil
	}
	if r.policy != config.PolicyAutoProvision {
		return false, nil
	}
	grants, err := r.grants.ListBySubject(ctx, subjectID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load access grants")
	}
	return len(grants) == 0, nil
}

func (r *Resolver) doorsForGrants(ctx context.Context, grants []*Grant) ([]models.AccessibleDoor, error) {
	accessible := make([]models.AccessibleDoor, 0, len(grants))
	for _, grant := range grants {
		door, err := r.doors.Get(ctx, grant.DoorID)
		if errors.Is(err, sentinel.ErrNotFound) {
			// Stale grant: the door was removed from the registry.
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load door")
		}
		accessible = append(accessible, models.AccessibleDoor{
			Door:            *door,
			AccessGrantedAt: grant.GrantedAt,
		})
	}
	return accessible, nil
}

// provision runs the fallback policy: select up to limit doors uniformly at
// random without replacement and persist grants for them. Deduplicated per
// subject via singleflight; the store upsert makes stragglers idempotent.
func (r *Resolver) provision(ctx context.Context, subjectID id.SubjectID) ([]models.AccessibleDoor, error) {
	result, err, _ := r.group.Do(subjectID.String(), func() (any, error) {
		// A concurrent caller may have provisioned while we waited.
		grants, err := r.grants.ListBySubject(ctx, subjectID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load access grants")
		}
		if len(grants) > 0 {
			return r.doorsForGrants(ctx, grants)
		}

		doors, err := r.doors.List(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list doors")
		}
		if len(doors) == 0 {
			return []models.AccessibleDoor{}, nil
		}

		selected := r.pick(doors)
		now := requestcontext.Now(ctx).UTC()

		accessible := make([]models.AccessibleDoor, 0, len(selected))
		for _, door := range selected {
			grant := &Grant{
				ID:        id.NewGrantID(),
				SubjectID: subjectID,
				DoorID:    door.ID,
				GrantedAt: now,
			}
			if err := r.grants.Upsert(ctx, grant); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create access grant")
			}
			accessible = append(accessible, models.AccessibleDoor{
				Door:            *door,
				AccessGrantedAt: now,
			})
		}

		r.logger.InfoContext(ctx, "auto-provisioned door access",
			"subject_id", subjectID,
			"doors", len(accessible),
		)
		return accessible, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.AccessibleDoor), nil
}

// pick selects up to limit doors uniformly at random without replacement.
func (r *Resolver) pick(doors []*models.Door) []*models.Door {
	n := r.limit
	if n > len(doors) {
		n = len(doors)
	}

	shuffled := make([]*models.Door, len(doors))
	copy(shuffled, doors)

	r.rngMu.Lock()
	r.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	r.rngMu.Unlock()

	return shuffled[:n]
}
