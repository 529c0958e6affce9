package api

import (
	"net/http"
	"testing"

	"github.com/skillswap/skillswap/db"
	"github.com/stretchr/testify/require"
)

func TestUpsertProfileOnePerAccount(t *testing.T) {
	server, _ := newTestServer(t)
	resp := register(t, server, "ana@example.com", "Ana")

	// First submission creates
	recorder := request(t, server, "PUT", "/api/profiles/me", resp.Tokens.AccessToken, map[string]string{
		"name":     "Ana",
		"teach":    "Guitar",
		"learn":    "Spanish",
		"location": "Lisbon",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	created := decode[db.Profile](t, recorder)
	require.Equal(t, resp.UserData.ID, created.AccountID)

	// Second submission from the same identity overwrites, never appends
	recorder = request(t, server, "PUT", "/api/profiles/me", resp.Tokens.AccessToken, map[string]string{
		"name":  "Ana",
		"teach": "Piano",
		"learn": "Spanish",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	updated := decode[db.Profile](t, recorder)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Piano", updated.Teach)

	var count int64
	server.queries.DB.Model(&db.Profile{}).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestUpsertProfileValidation(t *testing.T) {
	server, _ := newTestServer(t)
	resp := register(t, server, "ana@example.com", "Ana")

	// Missing learn is rejected before any write, with the field flagged
	recorder := request(t, server, "PUT", "/api/profiles/me", resp.Tokens.AccessToken, map[string]string{
		"teach": "Guitar",
		"learn": "",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	failure := decode[ValidationErrorResponse](t, recorder)
	require.Equal(t, []string{"learn"}, failure.Fields)

	// Whitespace-only counts as missing too
	recorder = request(t, server, "PUT", "/api/profiles/me", resp.Tokens.AccessToken, map[string]string{
		"teach": "   ",
		"learn": "  ",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	failure = decode[ValidationErrorResponse](t, recorder)
	require.Equal(t, []string{"teach", "learn"}, failure.Fields)

	var count int64
	server.queries.DB.Model(&db.Profile{}).Count(&count)
	require.EqualValues(t, 0, count)
}

func TestListProfilesFilterAndOrder(t *testing.T) {
	server, _ := newTestServer(t)

	ana := register(t, server, "ana@example.com", "Ana")
	bram := register(t, server, "bram@example.com", "Bram")

	recorder := request(t, server, "PUT", "/api/profiles/me", ana.Tokens.AccessToken, map[string]string{
		"name": "Ana", "teach": "Guitar", "learn": "Spanish", "location": "Lisbon",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = request(t, server, "PUT", "/api/profiles/me", bram.Tokens.AccessToken, map[string]string{
		"name": "Bram", "teach": "Cooking", "learn": "guitar", "location": "Utrecht",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	type listResponse struct {
		Total    int          `json:"total"`
		Profiles []db.Profile `json:"profiles"`
	}

	// No term: everything, newest first
	recorder = request(t, server, "GET", "/api/profiles", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	all := decode[listResponse](t, recorder)
	require.Equal(t, 2, all.Total)
	require.Equal(t, "Bram", all.Profiles[0].Name)

	// Case-insensitive term matches teach on one profile, learn on another
	recorder = request(t, server, "GET", "/api/profiles?q=GUITAR", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	filtered := decode[listResponse](t, recorder)
	require.Equal(t, 2, filtered.Total)

	recorder = request(t, server, "GET", "/api/profiles?q=lisbon", "", nil)
	filtered = decode[listResponse](t, recorder)
	require.Equal(t, 1, filtered.Total)
	require.Equal(t, "Ana", filtered.Profiles[0].Name)

	recorder = request(t, server, "GET", "/api/profiles?q=violin", "", nil)
	filtered = decode[listResponse](t, recorder)
	require.Equal(t, 0, filtered.Total)
}

func TestGetProfileByAccount(t *testing.T) {
	server, _ := newTestServer(t)
	resp := register(t, server, "ana@example.com", "Ana")

	recorder := request(t, server, "PUT", "/api/profiles/me", resp.Tokens.AccessToken, map[string]string{
		"teach": "Guitar", "learn": "Spanish",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	created := decode[db.Profile](t, recorder)

	recorder = request(t, server, "GET", "/api/profiles/1", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	fetched := decode[db.Profile](t, recorder)
	require.Equal(t, created.ID, fetched.ID)

	recorder = request(t, server, "GET", "/api/profiles/999", "", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}
