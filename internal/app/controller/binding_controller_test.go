package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hendrik2009/hearo-backend/internal/app/repository"
	"github.com/hendrik2009/hearo-backend/internal/app/service"
	"github.com/hendrik2009/hearo-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBindingControllerTest(t *testing.T) (*BindingController, *gin.Engine, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	repo := repository.NewTagBindingRepository(testDB)
	bindingService := service.NewBindingService(repo, nil, nil)
	exportService := service.NewExportService(repo, nil)
	controller := NewBindingController(bindingService, exportService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return controller, router, testDB
}

func putBinding(t *testing.T, router *gin.Engine, uid string, body UpsertBindingRequest) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/bindings/"+uid, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBindingController_UpsertAndGet(t *testing.T) {
	controller, router, _ := setupBindingControllerTest(t)
	router.PUT("/bindings/:uid", controller.UpsertBinding)
	router.GET("/bindings/:uid", controller.GetBinding)

	w := putBinding(t, router, "A237CDC6", UpsertBindingRequest{
		PlaylistURI:  "spotify:playlist:A",
		LastTrackURI: "spotify:track:1",
		LastPosMS:    5000,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/bindings/A237CDC6", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	binding, ok := response["binding"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "A237CDC6", binding["uid"])
	assert.Equal(t, "spotify:playlist:A", binding["playlist_uri"])
	assert.Equal(t, float64(5000), binding["last_pos_ms"])
	assert.NotZero(t, binding["updated_at"])
}

func TestBindingController_GetBinding_NotFound(t *testing.T) {
	controller, router, _ := setupBindingControllerTest(t)
	router.GET("/bindings/:uid", controller.GetBinding)

	req := httptest.NewRequest(http.MethodGet, "/bindings/DEADBEEF", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "BINDING_NOT_FOUND", response["error"])
}

func TestBindingController_UpsertBinding_Validation(t *testing.T) {
	controller, router, _ := setupBindingControllerTest(t)
	router.PUT("/bindings/:uid", controller.UpsertBinding)

	tests := []struct {
		name     string
		uid      string
		body     UpsertBindingRequest
		wantCode string
	}{
		{
			name:     "Missing playlist uri",
			uid:      "A237CDC6",
			body:     UpsertBindingRequest{},
			wantCode: "BINDING_INVALID_PLAYLIST",
		},
		{
			name: "Negative position",
			uid:  "A237CDC6",
			body: UpsertBindingRequest{
				PlaylistURI: "spotify:playlist:A",
				LastPosMS:   -1,
			},
			wantCode: "BINDING_INVALID_POSITION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := putBinding(t, router, tt.uid, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, response["error"])
		})
	}
}

func TestBindingController_UpsertBinding_Reassign(t *testing.T) {
	controller, router, _ := setupBindingControllerTest(t)
	router.PUT("/bindings/:uid", controller.UpsertBinding)
	router.GET("/bindings/:uid", controller.GetBinding)

	putBinding(t, router, "X", UpsertBindingRequest{
		PlaylistURI:  "spotify:playlist:A",
		LastTrackURI: "spotify:track:1",
		LastPosMS:    5000,
	})

	// Reassign with an omitted checkpoint: stale playback state must go
	w := putBinding(t, router, "X", UpsertBindingRequest{
		PlaylistURI: "spotify:playlist:B",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/bindings/X", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	binding := response["binding"].(map[string]interface{})
	assert.Equal(t, "spotify:playlist:B", binding["playlist_uri"])
	assert.Equal(t, "", binding["last_track_uri"])
	assert.Equal(t, float64(0), binding["last_pos_ms"])
}

func TestBindingController_ListBindings(t *testing.T) {
	controller, router, _ := setupBindingControllerTest(t)
	router.PUT("/bindings/:uid", controller.UpsertBinding)
	router.GET("/bindings", controller.ListBindings)

	putBinding(t, router, "A1", UpsertBindingRequest{PlaylistURI: "spotify:playlist:A"})
	putBinding(t, router, "A2", UpsertBindingRequest{PlaylistURI: "spotify:playlist:A"})
	putBinding(t, router, "B1", UpsertBindingRequest{PlaylistURI: "spotify:playlist:B"})

	req := httptest.NewRequest(http.MethodGet, "/bindings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, float64(3), response["count"])

	// Reverse lookup by playlist
	req = httptest.NewRequest(http.MethodGet, "/bindings?playlist_uri=spotify:playlist:A", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, float64(2), response["count"])
}

func TestBindingController_GetStats(t *testing.T) {
	controller, router, _ := setupBindingControllerTest(t)
	router.PUT("/bindings/:uid", controller.UpsertBinding)
	router.GET("/bindings/stats", controller.GetStats)

	putBinding(t, router, "A1", UpsertBindingRequest{PlaylistURI: "spotify:playlist:A"})

	req := httptest.NewRequest(http.MethodGet, "/bindings/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	stats := response["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["count"])
	assert.NotZero(t, stats["latest_update"])
}

func TestBindingController_SeedBindings(t *testing.T) {
	controller, router, _ := setupBindingControllerTest(t)
	router.POST("/bindings/seed", controller.SeedBindings)
	router.GET("/bindings", controller.ListBindings)

	body := SeedRequest{
		Bindings: []UpsertBindingRowRequest{
			{UID: "A237CDC6", PlaylistURI: "spotify:playlist:5a8SecnBpxPREV1zKsFQmS"},
			{UID: "F269CFC6", PlaylistURI: "spotify:playlist:6oLoFIB2boLJVYHeTRINuM"},
		},
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/bindings/seed", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err = json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, float64(2), response["seeded"])
}

func TestBindingController_SeedBindings_InvalidRow(t *testing.T) {
	controller, router, _ := setupBindingControllerTest(t)
	router.POST("/bindings/seed", controller.SeedBindings)
	router.GET("/bindings", controller.ListBindings)

	body := SeedRequest{
		Bindings: []UpsertBindingRowRequest{
			{UID: "GOOD1", PlaylistURI: "spotify:playlist:A"},
			{UID: "", PlaylistURI: "spotify:playlist:B"},
		},
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/bindings/seed", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The valid row must not have been applied either
	req = httptest.NewRequest(http.MethodGet, "/bindings", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	err = json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, float64(0), response["count"])
}

func TestBindingController_SeedBindings_EmptyBatch(t *testing.T) {
	controller, router, _ := setupBindingControllerTest(t)
	router.POST("/bindings/seed", controller.SeedBindings)

	req := httptest.NewRequest(http.MethodPost, "/bindings/seed",
		bytes.NewReader([]byte(`{"bindings": []}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBindingController_ExportBindings(t *testing.T) {
	controller, router, _ := setupBindingControllerTest(t)
	router.PUT("/bindings/:uid", controller.UpsertBinding)
	router.GET("/bindings/export", controller.ExportBindings)

	putBinding(t, router, "A1", UpsertBindingRequest{PlaylistURI: "spotify:playlist:A"})

	req := httptest.NewRequest(http.MethodGet, "/bindings/export", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "hearo-tags-")
	assert.NotEmpty(t, w.Body.Bytes())
}
