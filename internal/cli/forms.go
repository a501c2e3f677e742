package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/go-playground/validator/v10"

	"github.com/Makepad-fr/tada/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoginForm is what the login prompt or flags collect.
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// ProfileForm is what the profile editor collects.
type ProfileForm struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
}

var messages = map[string]string{
	"Email.required":    "Email is required",
	"Email.email":       "Please enter a valid email",
	"Password.required": "Password is required",
	"Username.required": "Username is required",
}

// formError flattens validator output into the messages users see.
func formError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var msgs []string
	for _, fe := range verrs {
		if m, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			msgs = append(msgs, m)
		} else {
			msgs = append(msgs, fe.Error())
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func (f *LoginForm) Validate() error {
	f.Email = strings.TrimSpace(f.Email)
	if err := validate.Struct(f); err != nil {
		return formError(err)
	}
	return nil
}

func (f *ProfileForm) Validate() error {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	if err := validate.Struct(f); err != nil {
		return formError(err)
	}
	return nil
}

func (f ProfileForm) User() model.User {
	return model.User{Username: f.Username, Email: f.Email}
}

// fieldValidator checks one value with a validator tag and reports it
// under field's messages. huh calls these as the user types.
func fieldValidator(field, tag string) func(string) error {
	return func(s string) error {
		err := validate.Var(strings.TrimSpace(s), tag)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		if m, ok := messages[field+"."+verrs[0].Tag()]; ok {
			return errors.New(m)
		}
		return errors.New(field + " is invalid")
	}
}

// promptLogin asks for whatever f is missing.
func promptLogin(f *LoginForm) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("demo@example.com").
				Value(&f.Email).
				Validate(fieldValidator("Email", "required,email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&f.Password).
				Validate(fieldValidator("Password", "required")),
		).Title("Welcome back").Description("Sign in to your account to continue"),
	).WithTheme(huh.ThemeCharm()).Run()
}

// promptProfile edits f in place, prefilled with its current values.
func promptProfile(f *ProfileForm) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&f.Username).
				Validate(fieldValidator("Username", "required")),
			huh.NewInput().
				Title("Email").
				Value(&f.Email).
				Validate(fieldValidator("Email", "required,email")),
		).Title("Profile"),
	).WithTheme(huh.ThemeCharm()).Run()
}
