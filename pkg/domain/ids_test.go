package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "smartdoor/pkg/domain-errors"
)

// Parsing invariant: IDs must be valid, non-empty, non-nil UUIDs. These are
// trust-boundary checks so attack vectors are rejected at API entry points.
func TestParseDoorID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDoorID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseDoorID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseDoorID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseDoorID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, DoorID(valid), id)
	})
}

func TestParseSubjectID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE doors;--", true},
		{"path traversal", "../../../etc/passwd", true},
		{"null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"oversized input", strings.Repeat("a", 1000), true},
		{"empty string", "", true},
		{"nil UUID", uuid.Nil.String(), true},
		{"uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSubjectID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseGrantID(t *testing.T) {
	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseGrantID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, GrantID(valid), id)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		for _, input := range []string{"", "not-a-uuid", uuid.Nil.String()} {
			_, err := ParseGrantID(input)
			require.Error(t, err, "input %q", input)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", input)
		}
	})

	t.Run("round trips through text", func(t *testing.T) {
		original := NewGrantID()
		text, err := original.MarshalText()
		require.NoError(t, err)

		var decoded GrantID
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, original, decoded)
	})
}

// Typed IDs prevent cross-type assignment at compile time; verify distinctness
// at runtime too.
func TestTypeDistinction(t *testing.T) {
	subjectID := SubjectID(uuid.New())
	doorID := DoorID(uuid.New())
	assert.NotEqual(t, uuid.UUID(subjectID), uuid.UUID(doorID))
}
