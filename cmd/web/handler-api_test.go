package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/myrjola/teamcheck/internal/models"
	"github.com/stretchr/testify/require"
)

func Test_application_apiRoster(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := startTestServer(t, testLookupEnv(nil)).Client()

	var roster models.Roster
	status, err := client.GetJSON(ctx, "/api/roster", &roster)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, roster.Characters, 12)
	require.Equal(t, "rina", roster.Characters[0].ID)
	require.Len(t, roster.Conditions, 22)
}

func Test_application_apiValidateTeam(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := startTestServer(t, testLookupEnv(nil)).Client()

	tests := []struct {
		name       string
		ids        string
		wantStatus int
		wantOK     [4]bool
	}{
		{name: "all triggered", ids: "ellen,lycaon,rina", wantStatus: http.StatusOK, wantOK: [4]bool{true, true, true, true}},
		{name: "none triggered", ids: "soldier11,billy,zhuyuan", wantStatus: http.StatusOK, wantOK: [4]bool{}},
		{name: "without conditions", ids: "bangboo,billy,anby", wantStatus: http.StatusOK,
			wantOK: [4]bool{true, true, true, true}},
		{name: "two members", ids: "ellen,lycaon", wantStatus: http.StatusBadRequest},
		{name: "unknown member", ids: "ellen,lycaon,nobody", wantStatus: http.StatusNotFound},
		{name: "duplicate member", ids: "ellen,ellen,rina", wantStatus: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body validateTeamResponse
			status, err := client.GetJSON(ctx, "/api/team/validate?ids="+tt.ids, &body)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, status)
			if status != http.StatusOK {
				return
			}
			v := body.Validation
			require.Equal(t, tt.wantOK, [4]bool{v.AOK, v.BOK, v.COK, v.AllOK})
		})
	}
}

func Test_application_static(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assets := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(assets, "character_icons"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "character_icons", "ellen.webp"), []byte("webp"), 0o600))
	client := startTestServer(t, testLookupEnv(map[string]string{"TEAMCHECK_ASSETS_DIR": assets})).Client()

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/static/main.css", wantStatus: http.StatusOK},
		{path: "/assets/character_icons/ellen.webp", wantStatus: http.StatusOK},
		{path: "/assets/character_icons/missing.webp", wantStatus: http.StatusNotFound},
		{path: "/does-not-exist", wantStatus: http.StatusNotFound},
		{path: "/api/healthy", wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := client.Get(ctx, tt.path)
			require.NoError(t, err)
			_ = resp.Body.Close()
			require.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
