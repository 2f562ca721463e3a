// Package cli provides the interactive Work Group command-line client.
//
// It wires configuration, the session store, the identity service client and
// the session manager, then runs a REPL. Commands:
//   - register, login, logout
//   - whoami, reload (from the local store), refresh (from the server)
//   - people, delete
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
