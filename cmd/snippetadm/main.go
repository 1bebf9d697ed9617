// Command snippetadm manages snippets-api accounts from the shell.
//
//	snippetadm createuser --username alice --email alice@example.com
//	snippetadm changepassword --username alice
//	snippetadm listusers
//
// It reads the same environment variables as the server (DB_DRIVER,
// DB_PATH, DATABASE_URL, ...) so both always talk to the same store.
// Passwords are prompted for without echo unless --password is given.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/sakif/snippets-api/internal/config"
	"github.com/sakif/snippets-api/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	e := &env{
		stdin:        os.Stdin,
		stdinFD:      int(os.Stdin.Fd()),
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		readPassword: term.ReadPassword,
		isTerminal:   term.IsTerminal,
		logger:       logger,
		open: func(ctx context.Context) (*storage.Stores, error) {
			cfg, err := config.Load(nil)
			if err != nil {
				return nil, err
			}
			return storage.Open(ctx, cfg, logger)
		},
	}

	if err := newApp(e).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "snippetadm:", err)
		os.Exit(1)
	}
}
