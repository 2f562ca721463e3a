package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/workgroup/workgroup-client/internal/client/client"
	"github.com/workgroup/workgroup-client/internal/client/models"
	"github.com/workgroup/workgroup-client/internal/client/sessionstore"
	"github.com/workgroup/workgroup-client/internal/common"
)

func (a *App) printSession(s *models.Session) {
	if s == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return
	}
	fmt.Fprintf(a.out, "%s <%s> (id %s)\n", s.Name, s.Email, s.ID)
}

// WhoAmI prints the current session and, for the SQLite store, when it was
// last saved on this device.
func (a *App) WhoAmI(ctx context.Context) error {
	s := a.sessions.Session()
	a.printSession(s)
	if s == nil {
		return nil
	}

	if st, ok := a.store.(*sessionstore.SQLiteStore); ok {
		at, err := st.SavedAt(ctx)
		if err != nil {
			a.log.Warn(ctx, "reading session timestamp", "error", err)
			return nil
		}
		if !at.IsZero() {
			fmt.Fprintln(a.out, "Saved on this device:", at.Local().Format(time.DateTime))
		}
	}
	return nil
}

// Reload re-reads the session from the local store.
func (a *App) Reload(ctx context.Context) error {
	a.printSession(a.sessions.RefreshFromStore(ctx))
	return nil
}

// Refresh reloads the account from the server. On failure the cached session
// is shown unchanged.
func (a *App) Refresh(ctx context.Context) error {
	a.printSession(a.sessions.RefetchFromRemote(ctx))
	return nil
}

// People lists the registered users.
func (a *App) People(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Sign in to see your group.")
		return nil
	}

	users, err := a.api.ListUsers(ctx)
	if err != nil {
		a.log.Warn(ctx, "listing users", "error", err)
		msg := common.MsgRequestFailed
		if errors.Is(err, client.ErrUnavailable) {
			msg = common.MsgNetworkRetry
		}
		return a.report(common.NewError(common.ErrRequestRejected, msg))
	}

	if len(users) == 0 {
		fmt.Fprintln(a.out, "No one here yet.")
		return nil
	}
	me := a.sessions.Session()
	for _, u := range users {
		marker := " "
		if me != nil && u.ID == me.ID {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s <%s>\n", marker, u.Name, models.CanonicalEmail(u.Email))
	}
	return nil
}

// DeleteAccount asks for confirmation, deletes the account on the server and
// signs out.
func (a *App) DeleteAccount(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "You are not signed in.")
		return nil
	}

	answer, err := getSimpleText(a.reader, "This permanently deletes your account. Type 'delete' to confirm", a.out)
	if err != nil {
		return err
	}
	if answer != "delete" {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if err := a.sessions.DeleteAccount(ctx); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Your account was deleted.")
	return nil
}
