package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/workgroup/workgroup-client/internal/client/registration"
	"github.com/workgroup/workgroup-client/internal/common"
)

// Login prompts for credentials and signs in. Failures are printed with the
// message the service produced and returned.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}

	s, err := a.sessions.Login(ctx, email, password)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Signed in as %s <%s>\n", s.Name, s.Email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.sessions.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

// Register walks the user through the sign-up form: the email is checked for
// uniqueness before the password is asked for, and the new account becomes
// the current session.
func (a *App) Register(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "You are already signed in. Log out first.")
		return nil
	}

	form := registration.NewForm(ctx, a.api, a.log, registration.WithDebounce(a.config.EmailCheckDebounce))
	defer form.Close()

	for {
		name, err := getSimpleText(a.reader, "Your name", a.out)
		if err != nil {
			return err
		}
		form.SetName(name)
		if form.Status().NameValid {
			break
		}
		fmt.Fprintln(a.out, "The name needs at least 2 characters.")
	}

	for {
		email, err := getSimpleText(a.reader, "Email", a.out)
		if err != nil {
			return err
		}
		form.SetEmail(email)
		if !form.Status().EmailValid {
			fmt.Fprintln(a.out, "Enter a valid email address.")
			continue
		}

		if err := form.WaitIdle(ctx); err != nil {
			return err
		}
		st := form.Status()
		if st.EmailInUse {
			fmt.Fprintln(a.out, common.MsgEmailTaken)
			continue
		}
		if st.CheckError {
			fmt.Fprintln(a.out, "Could not verify the email right now, continuing anyway.")
		}
		break
	}

	for {
		password, err := getPassword("Choose a password", a.out)
		if err != nil {
			return err
		}
		form.SetPassword(password)
		c := form.Status().Password
		if c.Valid() {
			break
		}
		fmt.Fprintln(a.out, "The password needs "+strings.Join(missingCriteria(c), ", ")+".")
	}

	s, err := form.Register(ctx)
	if err != nil {
		return a.report(err)
	}
	if _, err := a.sessions.Adopt(ctx, s); err != nil {
		if errors.Is(err, common.ErrPersistence) {
			fmt.Fprintln(a.out, "Your account was created. Log in to continue.")
		}
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", s.Name)
	return nil
}

func missingCriteria(c registration.PasswordCriteria) []string {
	var out []string
	if !c.Length {
		out = append(out, fmt.Sprintf("at least %d characters", registration.MinPasswordLength))
	}
	if !c.Lower {
		out = append(out, "a lowercase letter")
	}
	if !c.Upper {
		out = append(out, "an uppercase letter")
	}
	if !c.Digit {
		out = append(out, "a digit")
	}
	if !c.Symbol {
		out = append(out, "a symbol")
	}
	return out
}
