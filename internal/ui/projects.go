package ui

import (
	"context"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/vBaggio/qronis/internal/api"
	"github.com/vBaggio/qronis/internal/models"
)

const projectsPageSize = 10

// Projects is the paginated project management view.
type Projects struct {
	api *api.Client

	page       int
	nameFilter string
	current    *models.Page[models.Project]
	refresh    func()
}

func NewProjects(client *api.Client) *Projects {
	return &Projects{api: client}
}

func (p *Projects) MakeUI() fyne.CanvasObject {
	pageLabel := widget.NewLabel("")

	searchEntry := widget.NewEntry()
	searchEntry.PlaceHolder = "Search projects..."
	searchEntry.OnSubmitted = func(text string) {
		p.nameFilter = text
		p.page = 0
		p.refresh()
	}

	listView := widget.NewList(
		func() int {
			if p.current == nil {
				return 0
			}
			return len(p.current.Content)
		},
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil,
				container.NewHBox(
					widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil),
					widget.NewButtonWithIcon("", theme.DeleteIcon(), nil),
				),
				container.NewVBox(
					widget.NewLabelWithStyle("Name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
					widget.NewLabelWithStyle("Created", fyne.TextAlignLeading, fyne.TextStyle{Italic: true}),
				))
		},
		func(i int, o fyne.CanvasObject) {
			if p.current == nil || i >= len(p.current.Content) {
				return
			}
			project := p.current.Content[i]

			box := o.(*fyne.Container)
			infoBox := box.Objects[0].(*fyne.Container)
			nameLabel := infoBox.Objects[0].(*widget.Label)
			metaLabel := infoBox.Objects[1].(*widget.Label)
			rightBox := box.Objects[1].(*fyne.Container)
			renameBtn := rightBox.Objects[0].(*widget.Button)
			delBtn := rightBox.Objects[1].(*widget.Button)

			nameLabel.SetText(project.Name)
			metaLabel.SetText(fmt.Sprintf("by %s on %s",
				project.CreatedByName, project.CreatedAt.Format("02 Jan 2006")))

			renameBtn.OnTapped = func() {
				p.showRenameDialog(project)
			}
			delBtn.OnTapped = func() {
				p.confirmDelete(project)
			}
		},
	)

	prevBtn := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
		if p.page > 0 {
			p.page--
			p.refresh()
		}
	})
	nextBtn := widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
		if p.current != nil && !p.current.Last {
			p.page++
			p.refresh()
		}
	})

	newBtn := widget.NewButtonWithIcon("New Project", theme.ContentAddIcon(), func() {
		p.showCreateDialog()
	})
	newBtn.Importance = widget.HighImportance

	p.refresh = func() {
		go func() {
			page, err := p.api.ListProjects(context.Background(), api.ProjectQuery{
				Page: p.page,
				Size: projectsPageSize,
				Sort: "createdAt,desc",
				Name: p.nameFilter,
			})
			fyne.Do(func() {
				if err != nil {
					// Degrade to an empty listing; navigation retries.
					log.Printf("projects: failed to load page %d: %v", p.page, err)
					p.current = &models.Page[models.Project]{First: true, Last: true}
				} else {
					p.current = page
				}
				pageLabel.SetText(fmt.Sprintf("Page %d of %d (%d projects)",
					p.current.Number+1, max(p.current.TotalPages, 1), p.current.TotalElements))
				prevBtn.Enable()
				nextBtn.Enable()
				if p.current.First {
					prevBtn.Disable()
				}
				if p.current.Last {
					nextBtn.Disable()
				}
				listView.Refresh()
			})
		}()
	}
	p.refresh()

	toolbar := container.NewBorder(nil, nil, nil, newBtn, searchEntry)
	pager := container.NewHBox(prevBtn, nextBtn, layout.NewSpacer(), pageLabel)

	return container.NewBorder(
		container.NewVBox(toolbar, pager),
		nil, nil, nil,
		listView,
	)
}

func (p *Projects) showCreateDialog() {
	nameEntry := widget.NewEntry()
	nameEntry.PlaceHolder = "e.g. Website redesign"

	items := []*widget.FormItem{
		widget.NewFormItem("Name", nameEntry),
	}

	parentWindow := fyne.CurrentApp().Driver().AllWindows()[0]
	dialog.ShowForm("Create New Project", "Create", "Cancel", items, func(ok bool) {
		if !ok || nameEntry.Text == "" {
			return
		}
		go func() {
			_, err := p.api.CreateProject(context.Background(), nameEntry.Text)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, parentWindow)
					return
				}
				p.page = 0
				p.refresh()
			})
		}()
	}, parentWindow)
}

func (p *Projects) showRenameDialog(project models.Project) {
	nameEntry := widget.NewEntry()
	nameEntry.SetText(project.Name)

	items := []*widget.FormItem{
		widget.NewFormItem("Name", nameEntry),
	}

	parentWindow := fyne.CurrentApp().Driver().AllWindows()[0]
	dialog.ShowForm("Rename Project", "Save", "Cancel", items, func(ok bool) {
		if !ok || nameEntry.Text == "" || nameEntry.Text == project.Name {
			return
		}
		go func() {
			_, err := p.api.RenameProject(context.Background(), project.ID, nameEntry.Text)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, parentWindow)
					return
				}
				p.refresh()
			})
		}()
	}, parentWindow)
}

func (p *Projects) confirmDelete(project models.Project) {
	parentWindow := fyne.CurrentApp().Driver().AllWindows()[0]
	msg := fmt.Sprintf("Delete project %q? Its time entries are kept.", project.Name)
	dialog.ShowConfirm("Confirm Deletion", msg, func(confirmed bool) {
		if !confirmed {
			return
		}
		go func() {
			err := p.api.DeleteProject(context.Background(), project.ID)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, parentWindow)
					return
				}
				p.refresh()
			})
		}()
	}, parentWindow)
}
