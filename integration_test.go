package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeremiapane/table-reservation/config"
	"github.com/yeremiapane/table-reservation/router"
	"github.com/yeremiapane/table-reservation/utils"
	"github.com/yeremiapane/table-reservation/workflow"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	utils.InfoLogger.SetOutput(bytes.NewBuffer(nil))
	utils.ErrorLogger.SetOutput(bytes.NewBuffer(nil))
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() config.Config {
	return config.Config{
		DBDriver:        "sqlite",
		DBDSN:           "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		JWTSecret:       "integration-secret",
		TokenTTL:        time.Hour,
		BcryptCost:      bcrypt.MinCost,
		WorkflowTimeout: 2 * time.Second,
		SessionIdleTTL:  time.Hour,
		IdentityMode:    "staff",
		SeedFloorPlan:   true,
		CORSOrigin:      "http://127.0.0.1:5500",
	}
}

func setupApp(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	db, err := config.InitDB(cfg)
	require.NoError(t, err)
	deps, err := buildApp(cfg, db)
	require.NoError(t, err)
	return router.SetupRouter(deps)
}

func call(t *testing.T, r http.Handler, method, path string, body interface{}, token string, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if out != nil {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
		require.NoError(t, json.Unmarshal(env.Data, out), w.Body.String())
	}
	return w.Code
}

// TestEndToEndIntegration menguji flow utama:
// 1. Register staff lalu login ke dashboard
// 2. Customer membuat reservasi di meja kosong
// 3. Staff menandai meja itu reserved
// 4. Customer lain tidak bisa memilih meja tersebut
func TestEndToEndIntegration(t *testing.T) {
	r := setupApp(t, testConfig())

	code := call(t, r, http.MethodGet, "/ping", nil, "", nil)
	require.Equal(t, http.StatusOK, code)

	code = call(t, r, http.MethodPost, "/register", map[string]string{
		"name": "Maria", "username": "maria", "email": "maria@example.com", "password": "secret123",
	}, "", nil)
	require.Equal(t, http.StatusCreated, code)

	var staff struct {
		SessionID string `json:"session_id"`
	}
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/staff/sessions", nil, "", &staff))
	var session workflow.Session
	code = call(t, r, http.MethodPost, "/staff/sessions/"+staff.SessionID+"/login",
		map[string]string{"username": "maria", "password": "secret123"}, "", &session)
	require.Equal(t, http.StatusOK, code)

	var customer struct {
		SessionID string `json:"session_id"`
	}
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/reservations/sessions", nil, "", &customer))
	res := "/reservations/sessions/" + customer.SessionID
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, res+"/submit", map[string]interface{}{"date": "2099-01-01", "party_size": 2}, "", nil))
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, res+"/table", map[string]uint{"table_id": 6}, "", nil))
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, res+"/time", map[string]string{"time": "8:00 PM"}, "", nil))
	var confirmed struct {
		Reservation workflow.ConfirmedReservation `json:"reservation"`
	}
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, res+"/confirm", nil, "", &confirmed))
	assert.Equal(t, uint(6), confirmed.Reservation.TableID)

	var table workflow.TableRecord
	code = call(t, r, http.MethodPatch, "/staff/sessions/"+staff.SessionID+"/tables/6/status",
		map[string]interface{}{"status": "reserved", "guests": 2, "time": "8:00 PM"}, session.Token, &table)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, workflow.StatusReserved, table.Status)
	assert.Equal(t, 2, table.Occupancy)

	var other struct {
		SessionID string `json:"session_id"`
	}
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/reservations/sessions", nil, "", &other))
	var view workflow.ReservationView
	code = call(t, r, http.MethodPost, "/reservations/sessions/"+other.SessionID+"/submit",
		map[string]interface{}{"date": "2099-01-01"}, "", &view)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, workflow.Unavailable, view.Tables[5].Availability)

	var picked struct {
		Selected bool `json:"selected"`
	}
	call(t, r, http.MethodPost, "/reservations/sessions/"+other.SessionID+"/table", map[string]uint{"table_id": 6}, "", &picked)
	assert.False(t, picked.Selected)

	var stats workflow.Counters
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/tables/stats", nil, "", &stats))
	assert.Equal(t, workflow.Counters{Free: 2, Reserved: 3, Occupied: 3, Total: 8}, stats)
}

func TestRecheckRejectsTakenTable(t *testing.T) {
	cfg := testConfig()
	cfg.RecheckAvailability = true
	cfg.IdentityMode = "demo"
	r := setupApp(t, cfg)

	var customer struct {
		SessionID string `json:"session_id"`
	}
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/reservations/sessions", nil, "", &customer))
	res := "/reservations/sessions/" + customer.SessionID
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, res+"/submit", map[string]interface{}{"date": "2099-01-01"}, "", nil))
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, res+"/table", map[string]uint{"table_id": 1}, "", nil))
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, res+"/time", map[string]string{"time": "5:30 PM"}, "", nil))

	// staff menempati meja 1 sebelum customer konfirmasi
	var staff struct {
		SessionID string `json:"session_id"`
	}
	require.Equal(t, http.StatusCreated, call(t, r, http.MethodPost, "/staff/sessions", nil, "", &staff))
	var session workflow.Session
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPost, "/staff/sessions/"+staff.SessionID+"/login",
		map[string]string{"username": "host", "password": "demo"}, "", &session))
	require.Equal(t, http.StatusOK, call(t, r, http.MethodPatch, "/staff/sessions/"+staff.SessionID+"/tables/1/status",
		map[string]string{"status": "occupied"}, session.Token, nil))

	assert.Equal(t, http.StatusConflict, call(t, r, http.MethodPost, res+"/confirm", nil, "", nil))

	var view workflow.ReservationView
	require.Equal(t, http.StatusOK, call(t, r, http.MethodGet, res, nil, "", &view))
	assert.Equal(t, workflow.StageSelectingTable, view.Stage)
	assert.Nil(t, view.Draft.SelectedTableID)
	assert.Equal(t, workflow.Unavailable, view.Tables[0].Availability)
}
