package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/repository"
	"github.com/sakif/snippets-api/internal/service"
	"github.com/sakif/snippets-api/internal/storage"
)

// env carries everything the commands touch outside the process, so tests
// can swap the terminal and the store.
type env struct {
	stdin        io.Reader
	stdinFD      int
	stdout       io.Writer
	stderr       io.Writer
	readPassword func(fd int) ([]byte, error)
	isTerminal   func(fd int) bool
	open         func(ctx context.Context) (*storage.Stores, error)
	logger       *slog.Logger

	lines *bufio.Reader
}

func newApp(e *env) *cli.App {
	usernameFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "account name", Required: true}
	}
	passwordFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "password", Usage: "password (prompted for when omitted)"}
	}

	return &cli.App{
		Name:      "snippetadm",
		Usage:     "manage snippets-api accounts",
		Reader:    e.stdin,
		Writer:    e.stdout,
		ErrWriter: e.stderr,
		Commands: []*cli.Command{
			{
				Name:  "createuser",
				Usage: "create a password account",
				Flags: []cli.Flag{
					usernameFlag(),
					&cli.StringFlag{Name: "email", Usage: "contact address"},
					passwordFlag(),
				},
				Action: e.createUser,
			},
			{
				Name:   "changepassword",
				Usage:  "set a new password for an account",
				Flags:  []cli.Flag{usernameFlag(), passwordFlag()},
				Action: e.changePassword,
			},
			{
				Name:   "listusers",
				Usage:  "print every account",
				Action: e.listUsers,
			},
		},
	}
}

func (e *env) createUser(c *cli.Context) error {
	password, err := e.password(c)
	if err != nil {
		return err
	}

	return e.withAuth(c.Context, func(svc *service.AuthService) error {
		user, err := svc.CreateUser(c.Context, c.String("username"), c.String("email"), password)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(e.stdout, "created user %q with id %d\n", user.Username, user.ID)
		return nil
	})
}

func (e *env) changePassword(c *cli.Context) error {
	password, err := e.password(c)
	if err != nil {
		return err
	}

	return e.withAuth(c.Context, func(svc *service.AuthService) error {
		if err := svc.SetPassword(c.Context, c.String("username"), password); err != nil {
			return describe(err)
		}
		fmt.Fprintf(e.stdout, "password changed for %q\n", c.String("username"))
		return nil
	})
}

func (e *env) listUsers(c *cli.Context) error {
	stores, err := e.open(c.Context)
	if err != nil {
		return err
	}
	defer stores.Close()

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tPASSWORD\tGITHUB")

	for offset := 0; ; offset += repository.MaxLimit {
		users, err := stores.Users.ListUsers(c.Context, repository.ListOptions{Limit: repository.MaxLimit, Offset: offset})
		if err != nil {
			return err
		}
		for _, u := range users {
			github := "-"
			if u.GitHubID != 0 {
				github = fmt.Sprint(u.GitHubID)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, orDash(u.Email), yesNo(u.HasPassword()), github)
		}
		if len(users) < repository.MaxLimit {
			break
		}
	}

	return tw.Flush()
}

// withAuth opens the stores for the length of one command.
func (e *env) withAuth(ctx context.Context, fn func(*service.AuthService) error) error {
	stores, err := e.open(ctx)
	if err != nil {
		return err
	}
	defer stores.Close()

	return fn(service.NewAuthService(stores.Users, stores.Sessions, nil, auth.NewPasswordService(), 0, e.logger))
}

// password returns --password, or asks for it.
//
// On a terminal the password is typed twice without echo. Otherwise one
// line is read from stdin, so `echo pw | snippetadm createuser ...` works.
func (e *env) password(c *cli.Context) (string, error) {
	if c.IsSet("password") {
		return c.String("password"), nil
	}

	if !e.isTerminal(e.stdinFD) {
		return e.readLine()
	}

	first, err := e.prompt("Password: ")
	if err != nil {
		return "", err
	}
	again, err := e.prompt("Password (again): ")
	if err != nil {
		return "", err
	}
	if first != again {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func (e *env) prompt(label string) (string, error) {
	fmt.Fprint(e.stderr, label)
	pw, err := e.readPassword(e.stdinFD)
	fmt.Fprintln(e.stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

func (e *env) readLine() (string, error) {
	if e.lines == nil {
		e.lines = bufio.NewReader(e.stdin)
	}
	line, err := e.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// describe turns service errors into one-line messages for the terminal.
func describe(err error) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		fields := appErr.FieldErrors()
		var parts []string
		for _, name := range slices.Sorted(maps.Keys(fields)) {
			parts = append(parts, name+": "+strings.Join(fields[name], " "))
		}
		return errors.New(strings.Join(parts, "; "))
	case errors.Is(err, apperror.ErrConflict):
		return errors.New("username is already taken")
	case errors.Is(err, apperror.ErrNotFound):
		return errors.New("no such user")
	}
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
