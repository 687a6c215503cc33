package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vBaggio/qronis/internal/api"
	"github.com/vBaggio/qronis/internal/models"
)

// ErrNoProject rejects a start attempt before any network call is made.
var ErrNoProject = errors.New("select a project before starting the timer")

// Mode is the tracker's display mode.
type Mode int

const (
	Idle Mode = iota
	Running
)

// Tracker reconciles local timer state with the single server-side active
// time entry. The backend is the sole source of truth for whether a timer
// runs; Tracker holds a read-through projection for display only.
type Tracker struct {
	api *api.Client

	mu          sync.Mutex
	mode        Mode
	entryID     uuid.UUID
	projectID   uuid.UUID
	description string
	startTime   time.Time
}

func NewTracker(client *api.Client) *Tracker {
	return &Tracker{api: client}
}

// Resolve queries the backend for an in-progress entry, typically on view
// mount. An active entry puts the tracker in Running mode with the
// server's project, description and start time; no content means Idle.
// On any other failure the tracker stays Idle — it never claims a timer
// is running without the server confirming it — and the error is returned
// for logging.
func (t *Tracker) Resolve(ctx context.Context) error {
	entry, err := t.api.ActiveEntry(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil || entry == nil {
		t.reset()
		return err
	}

	t.adopt(entry)
	return nil
}

// Start begins tracking against a project. A missing project is rejected
// locally without touching the network. On backend failure the tracker
// stays Idle and the error is surfaced to the caller.
func (t *Tracker) Start(ctx context.Context, projectID uuid.UUID, description string) error {
	if projectID == uuid.Nil {
		return ErrNoProject
	}

	entry, err := t.api.StartEntry(ctx, projectID, description)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.adopt(entry)
	t.mu.Unlock()
	return nil
}

// Stop ends the active entry server-side. Only a confirmed stop clears
// the local fields; on failure the tracker stays Running so the display
// never drops an entry the backend still considers open.
func (t *Tracker) Stop(ctx context.Context) error {
	if _, err := t.api.StopEntry(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	t.reset()
	t.mu.Unlock()
	return nil
}

// Mode returns the current display mode.
func (t *Tracker) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Active returns the adopted projection of the running entry: its project,
// description and absolute start time. The zero values are returned while
// Idle.
func (t *Tracker) Active() (projectID uuid.UUID, description string, startTime time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.projectID, t.description, t.startTime
}

// Elapsed returns whole seconds since the entry started, clamped to zero
// to tolerate small clock skew against the server. Zero while Idle.
func (t *Tracker) Elapsed(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode != Running {
		return 0
	}
	secs := int(now.Sub(t.startTime) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// Display formats the current elapsed time for the big timer label.
func (t *Tracker) Display(now time.Time) string {
	return FormatElapsed(t.Elapsed(now))
}

func (t *Tracker) adopt(entry *models.TimeEntry) {
	t.mode = Running
	t.entryID = entry.ID
	t.projectID = entry.ProjectID
	t.description = entry.Description
	t.startTime = entry.StartTime
}

func (t *Tracker) reset() {
	t.mode = Idle
	t.entryID = uuid.Nil
	t.projectID = uuid.Nil
	t.description = ""
	t.startTime = time.Time{}
}

// FormatElapsed renders seconds as "MM:SS", switching to "HH:MM:SS" once
// a full hour has passed.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// RunTicker invokes fn immediately — no one-tick delay after entering
// Running mode — and then once per second until the returned cancel
// function is called. Cancel is idempotent and must be called on every
// exit path (stop, navigation, teardown) so no tick outlives its view.
func RunTicker(fn func()) (cancel func()) {
	done := make(chan struct{})
	var once sync.Once

	fn()
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
