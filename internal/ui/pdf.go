package ui

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"github.com/vBaggio/qronis/internal/models"
	"github.com/vBaggio/qronis/internal/service"
)

var reportGrid = []uint{3, 3, 3, 3}

// GeneratePDF writes a report of the given entries to path, optionally
// grouped by day, week or week-of-month.
func GeneratePDF(path string, entries []models.TimeEntry, start, end time.Time, groupBy string) error {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text("Qronis Time Report", props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(10, func() {
			m.Col(12, func() {
				dateRange := fmt.Sprintf("%s - %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
				m.Text(dateRange, props.Text{
					Top:   3,
					Style: consts.Normal,
					Align: consts.Center,
					Size:  12,
				})
			})
		})
	})

	headers := []string{"Date", "Project", "Description", "Duration"}
	now := time.Now()
	totalDuration := service.Total(entries, now)

	m.Row(10, func() {
		m.Col(12, func() {
			m.Text("Tracked Entries", props.Text{
				Top:   5,
				Style: consts.Bold,
				Size:  14,
			})
		})
	})

	tableProps := props.TableList{
		HeaderProp: props.TableListContent{
			Size:      10,
			GridSizes: reportGrid,
		},
		ContentProp: props.TableListContent{
			Size:      10,
			GridSizes: reportGrid,
		},
		Align:                consts.Center,
		AlternatedBackground: &color.Color{Red: 240, Green: 240, Blue: 240},
		HeaderContentSpace:   1,
		Line:                 false,
	}

	row := func(e models.TimeEntry) []string {
		return []string{
			e.StartTime.Local().Format("2006-01-02"),
			e.ProjectName,
			e.Description,
			formatDuration(e.Duration(now)),
		}
	}

	if groupBy == service.GroupByNone {
		rows := [][]string{}
		for _, e := range entries {
			rows = append(rows, row(e))
		}
		m.TableList(headers, rows, tableProps)
	} else {
		groups, keys := service.Group(entries, groupBy)

		for _, key := range keys {
			groupEntries := groups[key]
			groupTotal := service.Total(groupEntries, now)

			rows := [][]string{}
			for _, e := range groupEntries {
				rows = append(rows, row(e))
			}

			title := ""
			if len(groupEntries) > 0 {
				title = service.GroupTitle(groupEntries[0].StartTime, groupBy)
			}

			m.Row(10, func() {
				m.Col(12, func() {
					m.Text(title, props.Text{
						Top:   5,
						Style: consts.Bold,
						Size:  12,
						Align: consts.Left,
					})
				})
			})

			m.TableList(headers, rows, tableProps)

			m.Row(10, func() {
				m.Col(12, func() {
					m.Text(fmt.Sprintf("Subtotal: %s", formatDuration(groupTotal)), props.Text{
						Top:   0,
						Style: consts.Bold,
						Align: consts.Right,
						Size:  10,
					})
				})
			})

			m.Row(5, func() {})
		}
	}

	m.Row(20, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Total Time: %s", formatDuration(totalDuration)), props.Text{
				Top:   10,
				Style: consts.Bold,
				Align: consts.Right,
				Size:  12,
			})
		})
	})

	return m.OutputFileAndClose(path)
}
