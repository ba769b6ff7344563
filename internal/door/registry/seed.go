package registry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"smartdoor/internal/door/models"
	id "smartdoor/pkg/domain"
	"smartdoor/pkg/platform/sentinel"
)

// SeedSampleDoors creates a handful of doors for local development, mirroring
// the sample data the mobile app was built against. Existing doors are left
// alone so repeated boots are idempotent.
func SeedSampleDoors(ctx context.Context, store Store) ([]*models.Door, error) {
	now := time.Now().UTC()
	samples := []*models.Door{
		{ID: id.DoorID(uuid.MustParse("7d3f9a52-1c68-4b0e-9a2d-5f8e13c40a01")), Name: "Front Door", Location: "Ground Floor", Locked: true, BatteryLevel: 85, LastUpdate: now},
		{ID: id.DoorID(uuid.MustParse("7d3f9a52-1c68-4b0e-9a2d-5f8e13c40a02")), Name: "Back Door", Location: "Ground Floor", Locked: true, BatteryLevel: 72, LastUpdate: now},
		{ID: id.DoorID(uuid.MustParse("7d3f9a52-1c68-4b0e-9a2d-5f8e13c40a03")), Name: "Garage Door", Location: "Garage", Locked: false, BatteryLevel: 64, LastUpdate: now},
		{ID: id.DoorID(uuid.MustParse("7d3f9a52-1c68-4b0e-9a2d-5f8e13c40a04")), Name: "Office Door", Location: "First Floor", Locked: true, BatteryLevel: 91, LastUpdate: now},
		{ID: id.DoorID(uuid.MustParse("7d3f9a52-1c68-4b0e-9a2d-5f8e13c40a05")), Name: "Storage Room", Location: "Basement", Locked: true, BatteryLevel: 0, LastUpdate: now},
	}

	for _, door := range samples {
		if err := store.Create(ctx, door); err != nil && !errors.Is(err, sentinel.ErrConflict) {
			return nil, err
		}
	}
	return samples, nil
}
