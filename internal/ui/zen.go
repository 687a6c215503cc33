package ui

import (
	"context"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/google/uuid"

	"github.com/vBaggio/qronis/internal/api"
	"github.com/vBaggio/qronis/internal/models"
	"github.com/vBaggio/qronis/internal/timer"
)

// Zen is the stopwatch view: one big timer, a description, a project and a
// single start/stop control. On mount it reconciles with the backend so a
// timer left running (e.g. after a restart) is picked up where it was.
type Zen struct {
	api     *api.Client
	tracker *timer.Tracker

	timerData  binding.String
	projects   []models.Project
	cancelTick func()
}

func NewZen(client *api.Client, tracker *timer.Tracker) *Zen {
	return &Zen{
		api:       client,
		tracker:   tracker,
		timerData: binding.NewString(),
	}
}

func (z *Zen) MakeUI() fyne.CanvasObject {
	z.timerData.Set(timer.FormatElapsed(0))

	timerLabel := widget.NewLabelWithData(z.timerData)
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.Alignment = fyne.TextAlignCenter

	errorLabel := widget.NewLabel("")
	errorLabel.Importance = widget.DangerImportance
	errorLabel.Alignment = fyne.TextAlignCenter
	errorLabel.Hide()

	showError := func(msg string) {
		errorLabel.SetText(msg)
		errorLabel.Show()
	}
	clearError := func() {
		errorLabel.SetText("")
		errorLabel.Hide()
	}

	descEntry := widget.NewEntry()
	descEntry.PlaceHolder = "What are you working on?"

	var selectedProject uuid.UUID
	projectSelect := widget.NewSelect(nil, nil)
	projectSelect.PlaceHolder = "Select a project..."
	projectSelect.OnChanged = func(name string) {
		selectedProject = uuid.Nil
		for _, p := range z.projects {
			if p.Name == name {
				selectedProject = p.ID
				break
			}
		}
	}

	addProjectBtn := widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() {
		z.showNewProjectDialog(projectSelect)
	})

	var btn *widget.Button
	setRunning := func(running bool) {
		if running {
			btn.SetText("Stop")
			btn.SetIcon(theme.MediaStopIcon())
			descEntry.Disable()
			projectSelect.Disable()
			addProjectBtn.Disable()
		} else {
			btn.SetText("Start")
			btn.SetIcon(theme.MediaPlayIcon())
			descEntry.Enable()
			projectSelect.Enable()
			addProjectBtn.Enable()
		}
	}

	btn = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), func() {
		clearError()
		if z.tracker.Mode() == timer.Running {
			z.handleStop(setRunning, showError, descEntry, projectSelect, &selectedProject)
		} else {
			z.handleStart(selectedProject, descEntry.Text, setRunning, showError)
		}
	})

	controls := container.NewBorder(nil, nil,
		container.NewHBox(projectSelect, addProjectBtn), btn, descEntry)

	content := container.NewVBox(
		timerLabel,
		errorLabel,
		controls,
	)

	// Controls stay disabled until the reconciliation round trip finishes,
	// so the start/stop button never contradicts server state.
	btn.Disable()
	descEntry.Disable()
	projectSelect.Disable()
	go z.mount(btn, descEntry, projectSelect, &selectedProject, setRunning)

	return content
}

// mount loads the project list and reconciles the active entry exactly
// once per view activation.
func (z *Zen) mount(btn *widget.Button, descEntry *widget.Entry, projectSelect *widget.Select, selectedProject *uuid.UUID, setRunning func(bool)) {
	ctx := context.Background()

	page, err := z.api.ListProjects(ctx, api.ProjectQuery{Size: 100, Sort: "name,asc"})
	projects := []models.Project{}
	if err != nil {
		// Degrade to an empty selector; the user can retry by navigating.
		log.Printf("zen: failed to load projects: %v", err)
	} else {
		projects = page.Content
	}

	if err := z.tracker.Resolve(ctx); err != nil {
		log.Printf("zen: failed to check for an active timer: %v", err)
	}

	fyne.Do(func() {
		z.projects = projects
		names := make([]string, len(projects))
		for i, p := range projects {
			names[i] = p.Name
		}
		projectSelect.Options = names
		projectSelect.Refresh()

		btn.Enable()
		if z.tracker.Mode() == timer.Running {
			projectID, description, _ := z.tracker.Active()
			descEntry.SetText(description)
			*selectedProject = projectID
			for _, p := range projects {
				if p.ID == projectID {
					projectSelect.SetSelected(p.Name)
					break
				}
			}
			setRunning(true)
			z.startTicking()
		} else {
			setRunning(false)
		}
	})
}

func (z *Zen) handleStart(projectID uuid.UUID, description string, setRunning func(bool), showError func(string)) {
	// The missing-project guard fires inside Start before any request.
	go func() {
		err := z.tracker.Start(context.Background(), projectID, description)
		fyne.Do(func() {
			if err != nil {
				showError(err.Error())
				return
			}
			setRunning(true)
			z.startTicking()
		})
	}()
}

func (z *Zen) handleStop(setRunning func(bool), showError func(string), descEntry *widget.Entry, projectSelect *widget.Select, selectedProject *uuid.UUID) {
	go func() {
		err := z.tracker.Stop(context.Background())
		fyne.Do(func() {
			if err != nil {
				// Keep running; the backend still considers the entry open.
				showError(err.Error())
				return
			}
			z.stopTicking()
			z.timerData.Set(timer.FormatElapsed(0))
			setRunning(false)
			descEntry.SetText("")
			*selectedProject = uuid.Nil
			projectSelect.ClearSelected()
		})
	}()
}

// StopTimer stops the active entry from outside the view (system tray).
func (z *Zen) StopTimer() {
	if z.tracker.Mode() != timer.Running {
		return
	}
	if err := z.tracker.Stop(context.Background()); err != nil {
		log.Printf("zen: failed to stop timer from tray: %v", err)
		return
	}
	z.stopTicking()
	fyne.Do(func() {
		z.timerData.Set(timer.FormatElapsed(0))
	})
}

// Teardown cancels the ticker when the view goes away, whatever the path.
func (z *Zen) Teardown() {
	z.stopTicking()
}

func (z *Zen) startTicking() {
	z.stopTicking()
	z.cancelTick = timer.RunTicker(func() {
		display := z.tracker.Display(time.Now())
		fyne.Do(func() {
			z.timerData.Set(display)
		})
	})
}

func (z *Zen) stopTicking() {
	if z.cancelTick != nil {
		z.cancelTick()
		z.cancelTick = nil
	}
}

func (z *Zen) showNewProjectDialog(projectSelect *widget.Select) {
	nameEntry := widget.NewEntry()
	nameEntry.PlaceHolder = "Project name"

	items := []*widget.FormItem{
		widget.NewFormItem("Name", nameEntry),
	}

	parentWindow := fyne.CurrentApp().Driver().AllWindows()[0]
	dialog.ShowForm("New Project", "Create", "Cancel", items, func(ok bool) {
		if !ok || nameEntry.Text == "" {
			return
		}
		go func() {
			project, err := z.api.CreateProject(context.Background(), nameEntry.Text)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, parentWindow)
					return
				}
				z.projects = append([]models.Project{*project}, z.projects...)
				names := make([]string, len(z.projects))
				for i, p := range z.projects {
					names[i] = p.Name
				}
				projectSelect.Options = names
				projectSelect.SetSelected(project.Name)
			})
		}()
	}, parentWindow)
}
