package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartdoor/internal/access"
	"smartdoor/internal/audit"
	"smartdoor/internal/door/models"
	"smartdoor/internal/door/registry"
	"smartdoor/internal/door/service"
	"smartdoor/internal/platform/config"
	"smartdoor/internal/token"
	id "smartdoor/pkg/domain"
)

type fixture struct {
	router chi.Router
	tokens *token.Service
	doors  *registry.MemoryStore
	grants *access.MemoryStore
}

func newFixture(t *testing.T, policy config.AccessPolicy) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := token.NewService("test-signing-key", "smartdoor-test", "smartdoor")
	doors := registry.NewMemoryStore()
	grants := access.NewMemoryStore()
	auditLog := audit.NewLog(audit.NewMemoryStore())

	resolver, err := access.NewResolver(grants, doors, policy)
	require.NoError(t, err)

	svc, err := service.New(tokens, resolver, doors, auditLog, service.WithLogger(logger))
	require.NoError(t, err)

	router := chi.NewRouter()
	New(svc, logger).Register(router)

	return &fixture{router: router, tokens: tokens, doors: doors, grants: grants}
}

func (f *fixture) addDoor(t *testing.T, name string, locked bool, battery int) id.DoorID {
	t.Helper()
	doorID := id.DoorID(uuid.New())
	require.NoError(t, f.doors.Create(context.Background(), &models.Door{
		ID:           doorID,
		Name:         name,
		Locked:       locked,
		BatteryLevel: battery,
		LastUpdate:   time.Now().UTC(),
	}))
	return doorID
}

func (f *fixture) grant(t *testing.T, subjectID id.SubjectID, doorID id.DoorID) {
	t.Helper()
	require.NoError(t, f.grants.Upsert(context.Background(), &access.Grant{
		ID:        id.NewGrantID(),
		SubjectID: subjectID,
		DoorID:    doorID,
		GrantedAt: time.Now().UTC(),
	}))
}

func (f *fixture) credential(t *testing.T, subjectID id.SubjectID) string {
	t.Helper()
	raw, err := f.tokens.Generate(subjectID, time.Hour)
	require.NoError(t, err)
	return raw
}

func (f *fixture) do(t *testing.T, method, target, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleStatus(t *testing.T) {
	f := newFixture(t, config.PolicyExplicitGrants)
	subjectID := id.SubjectID(uuid.New())
	doorID := f.addDoor(t, "Front Door", true, 90)
	f.grant(t, subjectID, doorID)

	t.Run("returns accessible doors", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/door/status", f.credential(t, subjectID), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		data, ok := body["data"].([]any)
		require.True(t, ok)
		require.Len(t, data, 1)
		door := data[0].(map[string]any)
		assert.Equal(t, doorID.String(), door["id"])
		assert.Contains(t, door, "access_granted_at")
	})

	t.Run("empty list for subject with no grants", func(t *testing.T) {
		stranger := id.SubjectID(uuid.New())
		rec := f.do(t, http.MethodGet, "/door/status", f.credential(t, stranger), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Empty(t, body["data"])
		assert.Equal(t, "No doors accessible for this user", body["message"])
	})

	t.Run("missing credential", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/door/status", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TOKEN_MISSING", decodeBody(t, rec)["error"])
	})

	t.Run("expired credential", func(t *testing.T) {
		expired, err := f.tokens.Generate(subjectID, -time.Minute)
		require.NoError(t, err)
		rec := f.do(t, http.MethodGet, "/door/status", expired, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TOKEN_EXPIRED", decodeBody(t, rec)["error"])
	})
}

func TestHandleControl(t *testing.T) {
	f := newFixture(t, config.PolicyExplicitGrants)
	subjectID := id.SubjectID(uuid.New())
	doorID := f.addDoor(t, "Front Door", true, 90)
	f.grant(t, subjectID, doorID)
	credential := f.credential(t, subjectID)

	t.Run("unlock succeeds", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/door/control", credential,
			ControlRequest{DoorID: doorID.String(), Action: "unlock"})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Door opened successfully", body["message"])

		data := body["data"].(map[string]any)
		assert.Equal(t, doorID.String(), data["door_id"])
		assert.Equal(t, "UNLOCK", data["action"])
		status := data["door_status"].(map[string]any)
		assert.Equal(t, false, status["locked"])
	})

	t.Run("alias buka unlocks", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/door/control", credential,
			ControlRequest{DoorID: doorID.String(), Action: "buka"})
		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]any)
		assert.Equal(t, "UNLOCK", data["action"])
	})

	t.Run("missing door_id", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/door/control", credential,
			ControlRequest{Action: "lock"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_PARAMETERS", decodeBody(t, rec)["error"])
	})

	t.Run("malformed door_id", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/door/control", credential,
			ControlRequest{DoorID: "not-a-uuid", Action: "lock"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_INPUT", decodeBody(t, rec)["error"])
	})

	t.Run("invalid action", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/door/control", credential,
			ControlRequest{DoorID: doorID.String(), Action: "toggle"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ACTION", decodeBody(t, rec)["error"])
	})

	t.Run("unknown door", func(t *testing.T) {
		// Authorization is checked before the registry lookup, so the subject
		// needs a grant for the missing door to reach the 404 path.
		missing := id.DoorID(uuid.New())
		f.grant(t, subjectID, missing)

		rec := f.do(t, http.MethodPost, "/door/control", credential,
			ControlRequest{DoorID: missing.String(), Action: "lock"})
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "DOOR_NOT_FOUND", decodeBody(t, rec)["error"])
	})

	t.Run("access denied", func(t *testing.T) {
		stranger := id.SubjectID(uuid.New())
		otherDoor := f.addDoor(t, "Office", true, 90)
		f.grant(t, stranger, otherDoor)

		rec := f.do(t, http.MethodPost, "/door/control", f.credential(t, stranger),
			ControlRequest{DoorID: doorID.String(), Action: "unlock"})
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "ACCESS_DENIED", decodeBody(t, rec)["error"])
	})

	t.Run("offline door", func(t *testing.T) {
		offline := f.addDoor(t, "Storage Room", true, 0)
		f.grant(t, subjectID, offline)

		rec := f.do(t, http.MethodPost, "/door/control", credential,
			ControlRequest{DoorID: offline.String(), Action: "unlock"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "DOOR_OFFLINE", decodeBody(t, rec)["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/door/control", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Authorization", "Bearer "+credential)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", decodeBody(t, rec)["error"])
	})
}
