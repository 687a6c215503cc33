package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// SetupTray keeps the app reachable after the window is closed and offers
// a quick stop for the running timer.
func SetupTray(a fyne.App, w fyne.Window, icon fyne.Resource, z *Zen) {
	if desk, ok := a.(desktop.App); ok {
		m := fyne.NewMenu("Qronis",
			fyne.NewMenuItem("Show", func() {
				w.Show()
			}),
			fyne.NewMenuItem("Stop Timer", func() {
				z.StopTimer()
			}),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Quit", func() {
				a.Quit()
			}),
		)
		desk.SetSystemTrayMenu(m)
		if icon != nil {
			desk.SetSystemTrayIcon(icon)
		}
	}

	w.SetCloseIntercept(func() {
		w.Hide()
	})
}
