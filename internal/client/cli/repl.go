package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Reload(ctx context.Context) error
	Refresh(ctx context.Context) error
	People(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

// runREPL reads one command per line and dispatches it. The loop exits on EOF
// or when the user types "exit" or "quit".
//
//	Signed out:  help, register, login, reload, exit
//	Signed in:   help, whoami, people, refresh, reload, logout, delete, exit
//
// Handlers report their own errors; the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("wg %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, people, refresh, reload, logout, delete, exit")
			} else {
				printlnFn("Available commands: register, login, reload, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "reload":
			_ = a.Reload(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "people":
			_ = a.People(ctx)

		case "delete":
			_ = a.DeleteAccount(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
