package access

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartdoor/internal/door/models"
	"smartdoor/internal/door/registry"
	"smartdoor/internal/platform/config"
	id "smartdoor/pkg/domain"
	"smartdoor/pkg/requestcontext"
)

func seedDoors(t *testing.T, store *registry.MemoryStore, count int) []*models.Door {
	t.Helper()
	ctx := context.Background()
	doors := make([]*models.Door, 0, count)
	for i := 0; i < count; i++ {
		door := &models.Door{
			ID:           id.DoorID(uuid.New()),
			Name:         "Door " + string(rune('A'+i)),
			Locked:       true,
			BatteryLevel: 80,
			LastUpdate:   time.Now().UTC(),
		}
		require.NoError(t, store.Create(ctx, door))
		doors = append(doors, door)
	}
	return doors
}

func newTestResolver(t *testing.T, doors *registry.MemoryStore, policy config.AccessPolicy) (*Resolver, *MemoryStore) {
	t.Helper()
	grants := NewMemoryStore()
	resolver, err := NewResolver(grants, doors, policy, WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, err)
	return resolver, grants
}

func TestResolveAccessibleDoors_ExplicitGrants(t *testing.T) {
	ctx := context.Background()
	doorStore := registry.NewMemoryStore()
	doors := seedDoors(t, doorStore, 5)
	resolver, grants := newTestResolver(t, doorStore, config.PolicyAutoProvision)

	subjectID := id.SubjectID(uuid.New())
	grantedAt := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, grants.Upsert(ctx, &Grant{
		ID: id.NewGrantID(), SubjectID: subjectID, DoorID: doors[1].ID, GrantedAt: grantedAt,
	}))
	require.NoError(t, grants.Upsert(ctx, &Grant{
		ID: id.NewGrantID(), SubjectID: subjectID, DoorID: doors[3].ID, GrantedAt: grantedAt.Add(time.Minute),
	}))

	accessible, err := resolver.ResolveAccessibleDoors(ctx, subjectID)
	require.NoError(t, err)

	// Exactly the granted doors, never more, in granted_at order.
	require.Len(t, accessible, 2)
	assert.Equal(t, doors[1].ID, accessible[0].ID)
	assert.Equal(t, doors[3].ID, accessible[1].ID)
	assert.Equal(t, grantedAt, accessible[0].AccessGrantedAt)
}

func TestResolveAccessibleDoors_FallbackProvisioning(t *testing.T) {
	ctx := requestcontext.WithTime(context.Background(), time.Now().UTC())
	doorStore := registry.NewMemoryStore()
	seedDoors(t, doorStore, 5)
	resolver, grants := newTestResolver(t, doorStore, config.PolicyAutoProvision)

	subjectID := id.SubjectID(uuid.New())

	first, err := resolver.ResolveAccessibleDoors(ctx, subjectID)
	require.NoError(t, err)
	require.Len(t, first, 3, "fallback provisions exactly 3 of 5 doors")

	created, err := grants.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	assert.Len(t, created, 3, "matching grant records are persisted")

	// No duplicate doors in the selection.
	seen := map[id.DoorID]bool{}
	for _, d := range first {
		assert.False(t, seen[d.ID], "door selected twice")
		seen[d.ID] = true
	}

	// Second call returns the same doors deterministically: grants now exist.
	second, err := resolver.ResolveAccessibleDoors(ctx, subjectID)
	require.NoError(t, err)
	require.Len(t, second, 3)
	for _, d := range second {
		assert.True(t, seen[d.ID], "second resolution returned a non-provisioned door")
	}
}

func TestResolveAccessibleDoors_FewerDoorsThanLimit(t *testing.T) {
	ctx := context.Background()
	doorStore := registry.NewMemoryStore()
	seedDoors(t, doorStore, 2)
	resolver, _ := newTestResolver(t, doorStore, config.PolicyAutoProvision)

	accessible, err := resolver.ResolveAccessibleDoors(ctx, id.SubjectID(uuid.New()))
	require.NoError(t, err)
	assert.Len(t, accessible, 2, "limit is capped by registry size")
}

func TestResolveAccessibleDoors_EmptyRegistry(t *testing.T) {
	ctx := context.Background()
	resolver, grants := newTestResolver(t, registry.NewMemoryStore(), config.PolicyAutoProvision)

	subjectID := id.SubjectID(uuid.New())
	accessible, err := resolver.ResolveAccessibleDoors(ctx, subjectID)
	require.NoError(t, err)
	assert.Empty(t, accessible)

	created, err := grants.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	assert.Empty(t, created, "no grants created against an empty registry")
}

func TestResolveAccessibleDoors_ExplicitPolicyNoFallback(t *testing.T) {
	ctx := context.Background()
	doorStore := registry.NewMemoryStore()
	seedDoors(t, doorStore, 5)
	resolver, grants := newTestResolver(t, doorStore, config.PolicyExplicitGrants)

	subjectID := id.SubjectID(uuid.New())
	accessible, err := resolver.ResolveAccessibleDoors(ctx, subjectID)
	require.NoError(t, err)
	assert.Empty(t, accessible, "explicit policy: no grants means no access")

	created, err := grants.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	assert.Empty(t, created, "explicit policy never provisions")
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	doorStore := registry.NewMemoryStore()
	doors := seedDoors(t, doorStore, 3)

	t.Run("explicit grant allows", func(t *testing.T) {
		resolver, grants := newTestResolver(t, doorStore, config.PolicyAutoProvision)
		subjectID := id.SubjectID(uuid.New())
		require.NoError(t, grants.Upsert(ctx, &Grant{
			ID: id.NewGrantID(), SubjectID: subjectID, DoorID: doors[0].ID, GrantedAt: time.Now().UTC(),
		}))

		ok, err := resolver.Authorize(ctx, subjectID, doors[0].ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("granted subject is denied other doors", func(t *testing.T) {
		resolver, grants := newTestResolver(t, doorStore, config.PolicyAutoProvision)
		subjectID := id.SubjectID(uuid.New())
		require.NoError(t, grants.Upsert(ctx, &Grant{
			ID: id.NewGrantID(), SubjectID: subjectID, DoorID: doors[0].ID, GrantedAt: time.Now().UTC(),
		}))

		ok, err := resolver.Authorize(ctx, subjectID, doors[1].ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("zero grants pass under auto-provision policy", func(t *testing.T) {
		resolver, _ := newTestResolver(t, doorStore, config.PolicyAutoProvision)
		ok, err := resolver.Authorize(ctx, id.SubjectID(uuid.New()), doors[2].ID)
		require.NoError(t, err)
		assert.True(t, ok, "transitional open access while the subject has no grants")
	})

	t.Run("zero grants denied under explicit policy", func(t *testing.T) {
		resolver, _ := newTestResolver(t, doorStore, config.PolicyExplicitGrants)
		ok, err := resolver.Authorize(ctx, id.SubjectID(uuid.New()), doors[2].ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

// Concurrent first queries for the same subject must agree on one provisioned
// set: grants stay at the limit, never multiples of it.
func TestResolveAccessibleDoors_ConcurrentProvisioning(t *testing.T) {
	ctx := context.Background()
	doorStore := registry.NewMemoryStore()
	seedDoors(t, doorStore, 10)
	resolver, grants := newTestResolver(t, doorStore, config.PolicyAutoProvision)

	subjectID := id.SubjectID(uuid.New())

	const goroutines = 20
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			accessible, err := resolver.ResolveAccessibleDoors(ctx, subjectID)
			assert.NoError(t, err)
			assert.LessOrEqual(t, len(accessible), 3)
		}()
	}
	wg.Wait()

	created, err := grants.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	assert.Len(t, created, 3, "concurrent provisioning must not duplicate grants")
}

func TestMemoryStore_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	subjectID := id.SubjectID(uuid.New())
	doorID := id.DoorID(uuid.New())
	original := time.Now().UTC().Add(-time.Hour)

	require.NoError(t, store.Upsert(ctx, &Grant{
		ID: id.NewGrantID(), SubjectID: subjectID, DoorID: doorID, GrantedAt: original,
	}))
	require.NoError(t, store.Upsert(ctx, &Grant{
		ID: id.NewGrantID(), SubjectID: subjectID, DoorID: doorID, GrantedAt: time.Now().UTC(),
	}))

	grants, err := store.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	require.Len(t, grants, 1, "grants are idempotent keyed by (subject_id, door_id)")
	assert.Equal(t, original, grants[0].GrantedAt, "original granted_at wins")
}
