package timer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vBaggio/qronis/internal/api"
	"github.com/vBaggio/qronis/internal/events"
	"github.com/vBaggio/qronis/internal/models"
	"github.com/vBaggio/qronis/internal/timer"
)

type fakeBackend struct {
	mu          *http.ServeMux
	requests    *int32
	activeEntry *models.TimeEntry
	failStop    bool
	failStart   bool
}

func newFakeBackend(t *testing.T) (*fakeBackend, *timer.Tracker) {
	t.Helper()

	fb := &fakeBackend{mu: http.NewServeMux(), requests: new(int32)}

	fb.mu.HandleFunc("/api/time-entries/active", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(fb.requests, 1)
		if fb.activeEntry == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(fb.activeEntry)
	})
	fb.mu.HandleFunc("/api/time-entries/start", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(fb.requests, 1)
		if fb.failStart {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]any{"status": 409, "message": "Já existe um timer ativo"})
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		entry := &models.TimeEntry{
			ID:          uuid.New(),
			Description: body["description"],
			ProjectID:   uuid.MustParse(body["projectId"]),
			StartTime:   time.Now().UTC(),
		}
		fb.activeEntry = entry
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(entry)
	})
	fb.mu.HandleFunc("/api/time-entries/stop", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(fb.requests, 1)
		if fb.failStop {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		entry := fb.activeEntry
		if entry == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		now := time.Now().UTC()
		entry.EndTime = &now
		fb.activeEntry = nil
		json.NewEncoder(w).Encode(entry)
	})

	server := httptest.NewServer(fb.mu)
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, func() string { return "tok" }, events.NewBus())
	return fb, timer.NewTracker(client)
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{60, "01:00"},
		{125, "02:05"},
		{3599, "59:59"},
		{3600, "01:00:00"},
		{3725, "01:02:05"},
		{-5, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timer.FormatElapsed(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestResolve_AdoptsRunningEntry(t *testing.T) {
	fb, tracker := newFakeBackend(t)

	projectID := uuid.New()
	start := time.Now().UTC().Add(-10 * time.Second)
	fb.activeEntry = &models.TimeEntry{
		ID:          uuid.New(),
		Description: "left running before reload",
		ProjectID:   projectID,
		StartTime:   start,
	}

	require.NoError(t, tracker.Resolve(context.Background()))
	assert.Equal(t, timer.Running, tracker.Mode())

	gotProject, gotDesc, gotStart := tracker.Active()
	assert.Equal(t, projectID, gotProject)
	assert.Equal(t, "left running before reload", gotDesc)
	assert.True(t, gotStart.Equal(start))

	// Elapsed derives from the absolute server timestamp, never from a
	// locally incremented counter.
	assert.Equal(t, 125, tracker.Elapsed(start.Add(125*time.Second)))
	assert.Equal(t, "02:05", tracker.Display(start.Add(125*time.Second)))
	assert.Equal(t, "01:02:05", tracker.Display(start.Add(3725*time.Second)))
}

func TestResolve_NoContentMeansIdle(t *testing.T) {
	_, tracker := newFakeBackend(t)

	require.NoError(t, tracker.Resolve(context.Background()))
	assert.Equal(t, timer.Idle, tracker.Mode())
	assert.Equal(t, "00:00", tracker.Display(time.Now()))
}

func TestResolve_FailureStaysIdle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, func() string { return "tok" }, events.NewBus())
	tracker := timer.NewTracker(client)

	err := tracker.Resolve(context.Background())
	require.Error(t, err)
	// Fail-safe: never falsely show a running timer.
	assert.Equal(t, timer.Idle, tracker.Mode())
}

func TestStart_RequiresProject(t *testing.T) {
	fb, tracker := newFakeBackend(t)

	err := tracker.Start(context.Background(), uuid.Nil, "no project picked")
	require.ErrorIs(t, err, timer.ErrNoProject)
	assert.Equal(t, timer.Idle, tracker.Mode())
	assert.Zero(t, atomic.LoadInt32(fb.requests), "local guard must not touch the network")
}

func TestStart_AdoptsServerStartTime(t *testing.T) {
	_, tracker := newFakeBackend(t)

	projectID := uuid.New()
	require.NoError(t, tracker.Start(context.Background(), projectID, "focus"))
	assert.Equal(t, timer.Running, tracker.Mode())

	gotProject, gotDesc, gotStart := tracker.Active()
	assert.Equal(t, projectID, gotProject)
	assert.Equal(t, "focus", gotDesc)
	assert.False(t, gotStart.IsZero())
}

func TestStart_BackendFailureStaysIdle(t *testing.T) {
	fb, tracker := newFakeBackend(t)
	fb.failStart = true

	err := tracker.Start(context.Background(), uuid.New(), "focus")
	require.Error(t, err)
	assert.Equal(t, timer.Idle, tracker.Mode())
}

func TestStop_ClearsEverything(t *testing.T) {
	_, tracker := newFakeBackend(t)

	require.NoError(t, tracker.Start(context.Background(), uuid.New(), "focus"))
	require.NoError(t, tracker.Stop(context.Background()))

	assert.Equal(t, timer.Idle, tracker.Mode())
	gotProject, gotDesc, gotStart := tracker.Active()
	assert.Equal(t, uuid.Nil, gotProject)
	assert.Empty(t, gotDesc)
	assert.True(t, gotStart.IsZero())
	assert.Equal(t, "00:00", tracker.Display(time.Now()))
}

func TestStop_FailureKeepsRunning(t *testing.T) {
	fb, tracker := newFakeBackend(t)

	require.NoError(t, tracker.Start(context.Background(), uuid.New(), "focus"))
	fb.failStop = true

	err := tracker.Stop(context.Background())
	require.Error(t, err)
	// No optimistic clear: the backend still considers the entry open.
	assert.Equal(t, timer.Running, tracker.Mode())
}

func TestElapsed_ClampsClockSkew(t *testing.T) {
	fb, tracker := newFakeBackend(t)

	// Server clock slightly ahead of the client.
	fb.activeEntry = &models.TimeEntry{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		StartTime: time.Now().UTC().Add(2 * time.Second),
	}
	require.NoError(t, tracker.Resolve(context.Background()))

	assert.Equal(t, 0, tracker.Elapsed(time.Now()))
	assert.Equal(t, "00:00", tracker.Display(time.Now()))
}

func TestRunTicker_FiresImmediatelyAndCancels(t *testing.T) {
	var ticks int32
	cancel := timer.RunTicker(func() {
		atomic.AddInt32(&ticks, 1)
	})

	// No initial one-tick delay.
	assert.Equal(t, int32(1), atomic.LoadInt32(&ticks))

	cancel()
	cancel() // idempotent

	before := atomic.LoadInt32(&ticks)
	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, before, atomic.LoadInt32(&ticks), "no tick may fire after cancel")
}
