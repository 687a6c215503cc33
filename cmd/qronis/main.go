package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/vBaggio/qronis/internal/api"
	"github.com/vBaggio/qronis/internal/events"
	"github.com/vBaggio/qronis/internal/session"
	"github.com/vBaggio/qronis/internal/store"
	"github.com/vBaggio/qronis/internal/timer"
	"github.com/vBaggio/qronis/internal/ui"
	"github.com/vBaggio/qronis/internal/updater"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

var userConfigFilePath string

func setupViper() error {
	viper.SetConfigName("qronis")
	viper.SetConfigType("yaml")

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error getting user home directory: %w", err)
		}
		if runtime.GOOS == "windows" {
			configHome = filepath.Join(homeDir, "AppData", "Roaming")
		} else {
			configHome = filepath.Join(homeDir, ".config")
		}
	}

	userConfigFilePath = filepath.Join(configHome, "qronis", "qronis.yml")
	viper.SetConfigFile(userConfigFilePath)

	if err := os.MkdirAll(filepath.Dir(userConfigFilePath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	viper.SetDefault("api_url", "http://localhost:8080")
	viper.SetDefault("data_folder", filepath.Join(configHome, "qronis", "data"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			log.Println("Config file not found; creating one with default values")
			if err := viper.WriteConfigAs(userConfigFilePath); err != nil {
				return fmt.Errorf("error creating config file: %w", err)
			}
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func main() {
	os.Setenv("FYNE_SCALE", "auto")

	go func() {
		if err := updater.SelfUpdate("vBaggio", "qronis"); err != nil {
			log.Printf("Self-update failed: %v", err)
		}
	}()

	a := app.NewWithID("com.qronis.desktop")
	a.Settings().SetTheme(theme.DarkTheme())

	w := a.NewWindow("Qronis")
	w.Resize(fyne.NewSize(480, 640))

	if err := setupViper(); err != nil {
		dialog.ShowError(err, w)
		w.ShowAndRun()
		return
	}

	storage := store.NewStorage(viper.GetString("data_folder"))
	expired := events.NewBus()
	client := api.NewClient(viper.GetString("api_url"), storage.LoadToken, expired)
	sess := session.NewStore(client, storage, expired)
	tracker := timer.NewTracker(client)

	zen := ui.NewZen(client, tracker)
	login := ui.NewLogin(client, sess)
	register := ui.NewRegister(client, sess)

	showAuthed := func() {
		projects := ui.NewProjects(client)
		reports := ui.NewReports(client)
		configUI := ui.NewConfig(w, sess, userConfigFilePath)

		tabs := container.NewAppTabs(
			container.NewTabItem("Tracker", zen.MakeUI()),
			container.NewTabItem("Projects", projects.MakeUI()),
			container.NewTabItem("Reports", reports.MakeUI()),
			container.NewTabItem("Config", configUI.MakeUI()),
		)
		w.SetContent(tabs)
	}

	var showLogin func()
	var showRegister func()
	showLogin = func() {
		login.OnShowRegister = showRegister
		w.SetContent(login.MakeUI())
	}
	showRegister = func() {
		register.OnShowLogin = showLogin
		w.SetContent(register.MakeUI())
	}

	// Protected views only mount after the boot credential check settles;
	// session expiry drops straight back to the login view.
	refresh := func() {
		if sess.IsLoading() {
			return
		}
		if sess.IsAuthenticated() {
			showAuthed()
		} else {
			zen.Teardown()
			showLogin()
		}
	}
	sess.OnChange(func() {
		fyne.Do(refresh)
	})

	loading := container.NewCenter(container.NewVBox(
		widget.NewLabelWithStyle("Qronis", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewProgressBarInfinite(),
	))
	w.SetContent(loading)

	go sess.Initialize(context.Background())

	ui.SetupTray(a, w, nil, zen)
	ui.CheckVersion(w, storage)

	w.ShowAndRun()
}
