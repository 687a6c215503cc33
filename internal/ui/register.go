package ui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/vBaggio/qronis/internal/api"
	"github.com/vBaggio/qronis/internal/session"
)

// Register is the account-creation form.
type Register struct {
	api     *api.Client
	session *session.Store

	// OnShowLogin switches back to the login view.
	OnShowLogin func()
}

func NewRegister(client *api.Client, sess *session.Store) *Register {
	return &Register{api: client, session: sess}
}

func (r *Register) MakeUI() fyne.CanvasObject {
	title := widget.NewLabelWithStyle("Create your account", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	nameEntry := widget.NewEntry()
	emailEntry := widget.NewEntry()
	companyEntry := widget.NewEntry()
	passwordEntry := widget.NewPasswordEntry()
	confirmEntry := widget.NewPasswordEntry()

	errorLabel := widget.NewLabel("")
	errorLabel.Importance = widget.DangerImportance
	errorLabel.Alignment = fyne.TextAlignCenter
	errorLabel.Hide()

	form := widget.NewForm(
		widget.NewFormItem("Name", nameEntry),
		widget.NewFormItem("E-mail", emailEntry),
		widget.NewFormItem("Company", companyEntry),
		widget.NewFormItem("Password", passwordEntry),
		widget.NewFormItem("Confirm password", confirmEntry),
	)

	showError := func(msg string) {
		errorLabel.SetText(msg)
		errorLabel.Show()
	}

	var submitBtn *widget.Button
	submitBtn = widget.NewButton("Create account", func() {
		errorLabel.Hide()

		// Validation failures never reach the network.
		if nameEntry.Text == "" || emailEntry.Text == "" || companyEntry.Text == "" {
			showError("All fields are required.")
			return
		}
		if len(passwordEntry.Text) < 6 {
			showError("Password must have at least 6 characters.")
			return
		}
		if passwordEntry.Text != confirmEntry.Text {
			showError("Passwords do not match.")
			return
		}

		submitBtn.Disable()
		go func() {
			ctx := context.Background()
			token, err := r.api.Register(ctx, api.RegisterInput{
				Name:        nameEntry.Text,
				Email:       emailEntry.Text,
				Password:    passwordEntry.Text,
				CompanyName: companyEntry.Text,
			})
			if err == nil {
				err = r.session.Login(ctx, token)
			}
			fyne.Do(func() {
				submitBtn.Enable()
				if err != nil {
					showError(registerErrorMessage(err))
				}
			})
		}()
	})
	submitBtn.Importance = widget.HighImportance

	loginLink := widget.NewButton("I already have an account", func() {
		if r.OnShowLogin != nil {
			r.OnShowLogin()
		}
	})
	loginLink.Importance = widget.LowImportance

	return container.NewCenter(container.NewVBox(
		title,
		errorLabel,
		form,
		submitBtn,
		loginLink,
	))
}

func registerErrorMessage(err error) string {
	if apiErr, ok := err.(*api.APIError); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Could not create the account. Try again."
}
