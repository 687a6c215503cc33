package ui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/vBaggio/qronis/internal/api"
	"github.com/vBaggio/qronis/internal/session"
)

// Login is the credentials form shown while the session is anonymous.
type Login struct {
	api     *api.Client
	session *session.Store

	// OnShowRegister switches to the register view.
	OnShowRegister func()
}

func NewLogin(client *api.Client, sess *session.Store) *Login {
	return &Login{api: client, session: sess}
}

func (l *Login) MakeUI() fyne.CanvasObject {
	title := widget.NewLabelWithStyle("Welcome back", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	subtitle := widget.NewLabelWithStyle("Enter your credentials to continue.", fyne.TextAlignCenter, fyne.TextStyle{})

	emailEntry := widget.NewEntry()
	emailEntry.PlaceHolder = "alan@turing.com"
	passwordEntry := widget.NewPasswordEntry()

	errorLabel := widget.NewLabel("")
	errorLabel.Importance = widget.DangerImportance
	errorLabel.Alignment = fyne.TextAlignCenter
	errorLabel.Hide()

	form := widget.NewForm(
		widget.NewFormItem("E-mail", emailEntry),
		widget.NewFormItem("Password", passwordEntry),
	)

	var submitBtn *widget.Button
	submitBtn = widget.NewButton("Sign in", func() {
		errorLabel.Hide()
		if emailEntry.Text == "" || passwordEntry.Text == "" {
			errorLabel.SetText("E-mail and password are required.")
			errorLabel.Show()
			return
		}

		submitBtn.Disable()
		go func() {
			ctx := context.Background()
			token, err := l.api.Login(ctx, emailEntry.Text, passwordEntry.Text)
			if err == nil {
				// The profile is re-fetched here rather than trusted from
				// the login response; the session is only considered
				// authenticated once that fetch succeeds.
				err = l.session.Login(ctx, token)
			}
			fyne.Do(func() {
				submitBtn.Enable()
				if err != nil {
					errorLabel.SetText(loginErrorMessage(err))
					errorLabel.Show()
					return
				}
				// Session listeners swap the view; nothing to do here.
			})
		}()
	})
	submitBtn.Importance = widget.HighImportance

	registerLink := widget.NewButton("Create an account", func() {
		if l.OnShowRegister != nil {
			l.OnShowRegister()
		}
	})
	registerLink.Importance = widget.LowImportance

	return container.NewCenter(container.NewVBox(
		title,
		subtitle,
		errorLabel,
		form,
		submitBtn,
		registerLink,
	))
}

func loginErrorMessage(err error) string {
	if apiErr, ok := err.(*api.APIError); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Invalid e-mail or password."
}
