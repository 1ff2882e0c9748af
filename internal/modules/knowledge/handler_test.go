package knowledge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getJSON(t *testing.T, snap *Snapshot, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(snap).RegisterRoutes(router.Group("/api"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestListRolesEndpoint(t *testing.T) {
	snap, err := Load("")
	require.NoError(t, err)

	rec, body := getJSON(t, snap, "/api/knowledge-base/roles")
	require.Equal(t, http.StatusOK, rec.Code)

	roles, ok := body["data"].([]interface{})
	require.True(t, ok, "role lists are wrapped in a data envelope")
	assert.Len(t, roles, len(snap.All()))
}

func TestGetRoleEndpoint(t *testing.T) {
	snap, err := Load("")
	require.NoError(t, err)

	rec, body := getJSON(t, snap, "/api/knowledge-base/roles/backend%20developer")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Backend Developer", body["name"])

	rec, _ = getJSON(t, snap, "/api/knowledge-base/roles/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSkillsEndpoint(t *testing.T) {
	snap, err := Load("")
	require.NoError(t, err)

	rec, body := getJSON(t, snap, "/api/knowledge-base/skills")
	require.Equal(t, http.StatusOK, rec.Code)

	skills, ok := body["skills"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, skills["core"])
}
