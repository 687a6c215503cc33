package ui

import (
	"context"
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/vBaggio/qronis/internal/api"
	"github.com/vBaggio/qronis/internal/models"
	"github.com/vBaggio/qronis/internal/service"
)

// Reports shows the tracked history over a selectable range, with edit,
// delete and PDF export. The backend's history endpoint is the source;
// filtering and grouping happen client-side.
type Reports struct {
	api *api.Client
}

func NewReports(client *api.Client) *Reports {
	return &Reports{api: client}
}

func (r *Reports) MakeUI() fyne.CanvasObject {
	dailyContent := container.NewStack()
	weeklyContent := container.NewStack()
	monthlyContent := container.NewStack()
	customContent := container.NewStack()

	refreshReport := func(content *fyne.Container, start, end time.Time, refreshFunc func()) {
		go func() {
			all, err := r.api.ListEntries(context.Background())
			fyne.Do(func() {
				if err != nil {
					log.Printf("reports: failed to load history: %v", err)
					content.Objects = []fyne.CanvasObject{
						widget.NewLabel("Could not load the history. Navigate back here to retry."),
					}
					content.Refresh()
					return
				}
				entries := service.InRange(all, start, end)
				content.Objects = []fyne.CanvasObject{r.renderHistory(entries, start, end, refreshFunc)}
				content.Refresh()
			})
		}()
	}

	// Daily tab
	selectedDay := time.Now()
	dailyLabel := widget.NewLabel("")

	var updateDaily func()
	updateDaily = func() {
		dailyLabel.SetText("Report for " + selectedDay.Format("Mon, 02 Jan 2006"))
		refreshReport(dailyContent, selectedDay, selectedDay, updateDaily)
	}
	updateDaily()

	dailyTab := container.NewBorder(
		container.NewHBox(
			widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
				selectedDay = selectedDay.AddDate(0, 0, -1)
				updateDaily()
			}),
			widget.NewButton("Today", func() {
				selectedDay = time.Now()
				updateDaily()
			}),
			widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
				selectedDay = selectedDay.AddDate(0, 0, 1)
				updateDaily()
			}),
			layout.NewSpacer(),
			dailyLabel,
		),
		nil, nil, nil,
		dailyContent,
	)

	// Weekly tab
	weekStart := func(t time.Time) time.Time {
		start, _ := service.WeekRange(t)
		return start
	}
	selectedWeekStart := weekStart(time.Now())
	weeklyLabel := widget.NewLabel("")

	var updateWeekly func()
	updateWeekly = func() {
		end := selectedWeekStart.AddDate(0, 0, 6)
		weeklyLabel.SetText(fmt.Sprintf("Week %s - %s", selectedWeekStart.Format("Jan 02"), end.Format("Jan 02")))
		refreshReport(weeklyContent, selectedWeekStart, end, updateWeekly)
	}
	updateWeekly()

	weeklyTab := container.NewBorder(
		container.NewHBox(
			widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
				selectedWeekStart = selectedWeekStart.AddDate(0, 0, -7)
				updateWeekly()
			}),
			widget.NewButton("This Week", func() {
				selectedWeekStart = weekStart(time.Now())
				updateWeekly()
			}),
			widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
				selectedWeekStart = selectedWeekStart.AddDate(0, 0, 7)
				updateWeekly()
			}),
			layout.NewSpacer(),
			weeklyLabel,
		),
		nil, nil, nil,
		weeklyContent,
	)

	// Monthly tab
	monthStart := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	selectedMonth := monthStart(time.Now())
	monthlyLabel := widget.NewLabel("")

	var updateMonthly func()
	updateMonthly = func() {
		end := selectedMonth.AddDate(0, 1, -1)
		monthlyLabel.SetText("Report for " + selectedMonth.Format("January 2006"))
		refreshReport(monthlyContent, selectedMonth, end, updateMonthly)
	}
	updateMonthly()

	monthlyTab := container.NewBorder(
		container.NewHBox(
			widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
				selectedMonth = selectedMonth.AddDate(0, -1, 0)
				updateMonthly()
			}),
			widget.NewButton("This Month", func() {
				selectedMonth = monthStart(time.Now())
				updateMonthly()
			}),
			widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
				selectedMonth = selectedMonth.AddDate(0, 1, 0)
				updateMonthly()
			}),
			layout.NewSpacer(),
			monthlyLabel,
		),
		nil, nil, nil,
		monthlyContent,
	)

	// Custom range tab
	startDate := time.Now().AddDate(0, 0, -7)
	endDate := time.Now()

	var startBtn, endBtn *widget.Button

	var updateCustom func()
	updateCustom = func() {
		startBtn.SetText(startDate.Format("2006-01-02"))
		endBtn.SetText(endDate.Format("2006-01-02"))
		refreshReport(customContent, startDate, endDate, updateCustom)
	}

	pickDate := func(current time.Time, onSelect func(time.Time)) {
		var d dialog.Dialog
		cal := widget.NewCalendar(current, func(t time.Time) {
			onSelect(t)
			if d != nil {
				d.Hide()
			}
		})

		wins := fyne.CurrentApp().Driver().AllWindows()
		if len(wins) > 0 {
			d = dialog.NewCustom("Select Date", "Cancel", container.NewPadded(cal), wins[0])
			d.Resize(fyne.NewSize(300, 300))
			d.Show()
		}
	}

	startBtn = widget.NewButton(startDate.Format("2006-01-02"), func() {
		pickDate(startDate, func(t time.Time) {
			startDate = t
			updateCustom()
		})
	})
	endBtn = widget.NewButton(endDate.Format("2006-01-02"), func() {
		pickDate(endDate, func(t time.Time) {
			endDate = t
			updateCustom()
		})
	})

	updateCustom()

	customTab := container.NewBorder(
		container.NewHBox(
			widget.NewLabel("From:"), startBtn,
			widget.NewLabel("To:"), endBtn,
			layout.NewSpacer(),
			widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), func() {
				updateCustom()
			}),
		),
		nil, nil, nil,
		customContent,
	)

	return container.NewAppTabs(
		container.NewTabItem("Daily", dailyTab),
		container.NewTabItem("Weekly", weeklyTab),
		container.NewTabItem("Monthly", monthlyTab),
		container.NewTabItem("Custom Range", customTab),
	)
}

func (r *Reports) renderHistory(entries []models.TimeEntry, start, end time.Time, onRefresh func()) fyne.CanvasObject {
	if len(entries) == 0 {
		return widget.NewLabel("No entries found for this period.")
	}

	now := time.Now()
	total := service.Total(entries, now)
	sums := service.TotalsByProject(entries, now)

	summaryText := fmt.Sprintf("Total Time: %s\n", formatDuration(total))
	for project, dur := range sums {
		summaryText += fmt.Sprintf("- %s: %s\n", project, formatDuration(dur))
	}
	summaryLabel := widget.NewLabel(summaryText)

	exportBtn := widget.NewButtonWithIcon("Export PDF", theme.DocumentSaveIcon(), func() {
		r.exportPDF(entries, start, end)
	})

	listData := entries

	listView := widget.NewList(
		func() int { return len(listData) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil,
				container.NewHBox(
					widget.NewLabel("00:00:00"),
					widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil),
					widget.NewButtonWithIcon("", theme.DeleteIcon(), nil),
				),
				container.NewVBox(
					widget.NewLabelWithStyle("Title", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
					widget.NewLabelWithStyle("Date", fyne.TextAlignLeading, fyne.TextStyle{Italic: true}),
				))
		},
		func(i int, o fyne.CanvasObject) {
			// Newest first.
			entry := listData[i]

			box := o.(*fyne.Container)
			rightBox := box.Objects[1].(*fyne.Container)
			durLabel := rightBox.Objects[0].(*widget.Label)
			editBtn := rightBox.Objects[1].(*widget.Button)
			delBtn := rightBox.Objects[2].(*widget.Button)

			infoBox := box.Objects[0].(*fyne.Container)
			titleLabel := infoBox.Objects[0].(*widget.Label)
			dateLabel := infoBox.Objects[1].(*widget.Label)

			title := entry.Description
			if entry.ProjectName != "" {
				title = fmt.Sprintf("[%s] %s", entry.ProjectName, entry.Description)
			}
			titleLabel.SetText(title)
			dateLabel.SetText(entry.StartTime.Local().Format("Mon, 02 Jan 15:04"))

			if entry.Running() {
				durLabel.TextStyle = fyne.TextStyle{Italic: true}
				editBtn.Disable() // A running entry is edited by stopping it.
			} else {
				durLabel.TextStyle = fyne.TextStyle{}
				editBtn.Enable()
			}
			durLabel.SetText(formatDuration(entry.Duration(time.Now())))

			editBtn.OnTapped = func() {
				r.showEditDialog(entry, onRefresh)
			}
			delBtn.OnTapped = func() {
				parentWindow := fyne.CurrentApp().Driver().AllWindows()[0]
				dialog.ShowConfirm("Confirm Deletion", "Are you sure you want to delete this entry?", func(confirmed bool) {
					if !confirmed {
						return
					}
					go func() {
						err := r.api.DeleteEntry(context.Background(), entry.ID)
						fyne.Do(func() {
							if err != nil {
								dialog.ShowError(err, parentWindow)
								return
							}
							onRefresh()
						})
					}()
				}, parentWindow)
			}
		},
	)

	return container.NewBorder(
		container.NewVBox(container.NewBorder(nil, nil, nil, exportBtn, summaryLabel), widget.NewSeparator()),
		nil, nil, nil,
		listView,
	)
}

func (r *Reports) showEditDialog(entry models.TimeEntry, onSuccess func()) {
	descEntry := widget.NewEntry()
	descEntry.SetText(entry.Description)

	startEntry := widget.NewEntry()
	startEntry.SetText(entry.StartTime.Local().Format("2006-01-02 15:04:05"))

	endEntry := widget.NewEntry()
	if entry.EndTime != nil {
		endEntry.SetText(entry.EndTime.Local().Format("2006-01-02 15:04:05"))
	}

	items := []*widget.FormItem{
		widget.NewFormItem("Description", descEntry),
		widget.NewFormItem("Start Time", startEntry),
		widget.NewFormItem("End Time", endEntry),
	}

	parentWindow := fyne.CurrentApp().Driver().AllWindows()[0]
	dlg := dialog.NewForm("Edit Entry", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}

		newStart, err := time.ParseInLocation("2006-01-02 15:04:05", startEntry.Text, time.Local)
		if err != nil {
			dialog.ShowError(fmt.Errorf("invalid start time: %w", err), parentWindow)
			return
		}

		patch := api.EntryPatch{
			Description: &descEntry.Text,
			StartTime:   &newStart,
		}
		if endEntry.Text != "" {
			newEnd, err := time.ParseInLocation("2006-01-02 15:04:05", endEntry.Text, time.Local)
			if err != nil {
				dialog.ShowError(fmt.Errorf("invalid end time: %w", err), parentWindow)
				return
			}
			patch.EndTime = &newEnd
		}

		go func() {
			_, err := r.api.PatchEntry(context.Background(), entry.ID, patch)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, parentWindow)
					return
				}
				onSuccess()
			})
		}()
	}, parentWindow)
	dlg.Resize(fyne.NewSize(parentWindow.Canvas().Size().Width, dlg.MinSize().Height))
	dlg.Show()
}

func (r *Reports) exportPDF(entries []models.TimeEntry, start, end time.Time) {
	parentWindow := fyne.CurrentApp().Driver().AllWindows()[0]

	groupSelect := widget.NewSelect([]string{
		service.GroupByNone, service.GroupByDay, service.GroupByWeek, service.GroupByWeekOfMonth,
	}, nil)
	groupSelect.SetSelected(service.GroupByDay)

	items := []*widget.FormItem{
		widget.NewFormItem("Group by", groupSelect),
	}

	dialog.ShowForm("Export PDF", "Choose file...", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		groupBy := groupSelect.Selected

		dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, parentWindow)
				return
			}
			if writer == nil {
				return
			}
			path := writer.URI().Path()
			writer.Close()

			if err := GeneratePDF(path, entries, start, end, groupBy); err != nil {
				dialog.ShowError(err, parentWindow)
				return
			}
			dialog.ShowInformation("Export complete", "Report saved to "+path, parentWindow)
		}, parentWindow).Show()
	}, parentWindow)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
