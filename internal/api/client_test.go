package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vBaggio/qronis/internal/api"
	"github.com/vBaggio/qronis/internal/events"
	"github.com/vBaggio/qronis/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler, token string) (*api.Client, *events.Bus) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	bus := events.NewBus()
	client := api.NewClient(server.URL, func() string { return token }, bus)
	return client, bus
}

func TestClient_Login(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["email"] != "ada@lovelace.dev" || body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"status": 401, "message": "Credenciais inválidas"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	})

	client, bus := newTestClient(t, mux, "")

	expiredFired := 0
	bus.Subscribe(func() { expiredFired++ })

	token, err := client.Login(context.Background(), "ada@lovelace.dev", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	_, err = client.Login(context.Background(), "ada@lovelace.dev", "wrong")
	require.Error(t, err)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Credenciais inválidas", apiErr.Message)

	// Bad credentials on the public endpoint are not a session expiry.
	assert.Zero(t, expiredFired)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(models.User{ID: uuid.New(), Name: "Ada"})
	})

	client, _ := newTestClient(t, mux, "tok-abc")

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestClient_UnauthorizedBroadcastsExpiry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, bus := newTestClient(t, mux, "stale")

	fired := 0
	bus.Subscribe(func() { fired++ })

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, fired)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestClient_ActiveEntry(t *testing.T) {
	entryID := uuid.New()
	projectID := uuid.New()
	start := time.Now().Add(-2 * time.Minute).UTC().Truncate(time.Second)

	active := true
	mux := http.NewServeMux()
	mux.HandleFunc("/api/time-entries/active", func(w http.ResponseWriter, r *http.Request) {
		if !active {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(models.TimeEntry{
			ID:          entryID,
			Description: "deep work",
			StartTime:   start,
			ProjectID:   projectID,
		})
	})

	client, _ := newTestClient(t, mux, "tok")

	entry, err := client.ActiveEntry(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, entryID, entry.ID)
	assert.Equal(t, projectID, entry.ProjectID)
	assert.True(t, entry.Running())
	assert.True(t, entry.StartTime.Equal(start))

	// 204 means no running timer, not an error.
	active = false
	entry, err = client.ActiveEntry(context.Background())
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestClient_ListProjects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("size"))
		assert.Equal(t, "name,asc", q.Get("sort"))
		assert.Equal(t, "web", q.Get("name"))

		json.NewEncoder(w).Encode(models.Page[models.Project]{
			Content:       []models.Project{{ID: uuid.New(), Name: "Website"}},
			TotalElements: 21,
			TotalPages:    3,
			Number:        2,
			Last:          true,
		})
	})

	client, _ := newTestClient(t, mux, "tok")

	page, err := client.ListProjects(context.Background(), api.ProjectQuery{
		Page: 2, Size: 10, Sort: "name,asc", Name: "web",
	})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Website", page.Content[0].Name)
	assert.True(t, page.Last)
}

func TestClient_DeleteProjectAcceptsNoContent(t *testing.T) {
	projectID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects/"+projectID.String(), func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	client, _ := newTestClient(t, mux, "tok")
	require.NoError(t, client.DeleteProject(context.Background(), projectID))
}

func TestClient_StartEntry(t *testing.T) {
	projectID := uuid.New()
	start := time.Now().UTC().Truncate(time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/time-entries/start", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, projectID.String(), body["projectId"])
		assert.Equal(t, "write tests", body["description"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.TimeEntry{
			ID:          uuid.New(),
			Description: body["description"],
			StartTime:   start,
			ProjectID:   projectID,
		})
	})

	client, _ := newTestClient(t, mux, "tok")

	entry, err := client.StartEntry(context.Background(), projectID, "write tests")
	require.NoError(t, err)
	assert.True(t, entry.StartTime.Equal(start))
}

func TestClient_MalformedErrorBodyKeepsStatusMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>oops</html>"))
	})

	client, _ := newTestClient(t, mux, "tok")

	_, err := client.CreateProject(context.Background(), "x")
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "500")
}
