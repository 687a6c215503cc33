package ui

import (
	"errors"
	"net/url"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/viper"

	"github.com/vBaggio/qronis/internal/session"
)

// Config is the settings view: backend URL, sign-out and quit.
type Config struct {
	window             fyne.Window
	session            *session.Store
	userConfigFilePath string
}

func NewConfig(w fyne.Window, sess *session.Store, userConfigFilePath string) *Config {
	return &Config{window: w, session: sess, userConfigFilePath: userConfigFilePath}
}

func (c *Config) MakeUI() fyne.CanvasObject {
	apiEntry := widget.NewEntry()
	apiEntry.SetText(viper.GetString("api_url"))

	saveBtn := widget.NewButton("Save Configuration", func() {
		parsed, err := url.Parse(apiEntry.Text)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			dialog.ShowError(errors.New("the backend URL must be a full http(s) address"), c.window)
			return
		}

		viper.Set("api_url", apiEntry.Text)
		if err := viper.WriteConfigAs(c.userConfigFilePath); err != nil {
			dialog.ShowError(err, c.window)
			return
		}
		dialog.ShowInformation("Saved", "Restart the application to use the new backend URL.", c.window)
	})

	logoutBtn := widget.NewButtonWithIcon("Sign out", theme.LogoutIcon(), func() {
		dialog.ShowConfirm("Sign out", "Sign out of this account?", func(confirmed bool) {
			if confirmed {
				c.session.Logout()
			}
		}, c.window)
	})
	logoutBtn.Importance = widget.DangerImportance

	quitBtn := widget.NewButtonWithIcon("Quit Application", theme.CancelIcon(), func() {
		fyne.CurrentApp().Quit()
	})

	return container.NewVBox(
		widget.NewLabel("Settings"),
		widget.NewForm(
			widget.NewFormItem("Backend URL", apiEntry),
		),
		saveBtn,
		widget.NewSeparator(),
		logoutBtn,
		widget.NewSeparator(),
		quitBtn,
	)
}
