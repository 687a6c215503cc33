package ui

import (
	_ "embed"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/vBaggio/qronis/internal/store"
	"github.com/vBaggio/qronis/internal/version"
)

//go:embed CHANGELOG.md
var changelogData string

// CheckVersion shows the release notes once after an update or first run.
func CheckVersion(w fyne.Window, s *store.Storage) {
	appState, _ := s.LoadAppState()
	// A zero-valued state (read error or first run) triggers the dialog.

	currentVersion := version.Version
	if appState.LastRunVersion != currentVersion {
		showWelcomeDialog(w, currentVersion)
		appState.LastRunVersion = currentVersion
		s.SaveAppState(appState)
	}
}

func showWelcomeDialog(w fyne.Window, v string) {
	notes := parseChangelog(v)
	if notes == "" {
		return
	}

	content := widget.NewRichTextFromMarkdown(notes)

	scroll := container.NewScroll(content)
	scroll.SetMinSize(fyne.NewSize(400, 300))

	dlg := dialog.NewCustom("What's New in "+v, "Close", scroll, w)
	dlg.Resize(fyne.NewSize(500, 400))
	dlg.Show()
}

// parseChangelog extracts the "## <version>" section of the changelog,
// accepting both "v1.2.3" and "1.2.3" spellings.
func parseChangelog(v string) string {
	isVersionHeader := func(line, ver string) bool {
		if !strings.HasPrefix(line, "## ") {
			return false
		}
		return strings.Contains(line, "["+ver+"]") ||
			strings.Contains(line, " "+ver+" ") ||
			strings.HasSuffix(line, " "+ver)
	}

	var extracted []string
	capture := false
	for _, line := range strings.Split(changelogData, "\n") {
		if strings.HasPrefix(line, "## ") {
			if capture {
				break
			}
			if isVersionHeader(line, v) || (!strings.HasPrefix(v, "v") && isVersionHeader(line, "v"+v)) {
				capture = true
				continue
			}
		}
		if capture {
			extracted = append(extracted, line)
		}
	}

	return strings.Join(extracted, "\n")
}
