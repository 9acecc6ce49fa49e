package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dmarquez/catalogkeeper/internal/catalog"
	"github.com/dmarquez/catalogkeeper/internal/routes"
	"github.com/dmarquez/catalogkeeper/internal/session"
	pkgerrors "github.com/dmarquez/catalogkeeper/pkg/errors"
	"github.com/dmarquez/catalogkeeper/pkg/logger"
)

type app struct {
	sessions *session.Store
	products *catalog.Store
	logger   *logger.Logger
	stdout   io.Writer
	stderr   io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usage)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "register":
		return a.register(ctx, args[1:])
	case "login":
		return a.login(ctx, args[1:])
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "products":
		return a.runProducts(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(a.stdout, usage)
		return nil
	default:
		fmt.Fprint(a.stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// guard consults the route table with the command's equivalent route. A
// redirect verdict means the command is not reachable for this session.
func (a *app) guard(route string) error {
	decision := routes.Decide(route, a.sessions.Snapshot())
	if decision.Action == routes.ActionAllow {
		return nil
	}
	switch decision.Target {
	case routes.PathLogin:
		return fmt.Errorf("not signed in — run `catalogkeeper login` first")
	case routes.PathProducts:
		return fmt.Errorf("already signed in — run `catalogkeeper products list`, or `catalogkeeper logout` to switch accounts")
	default:
		return fmt.Errorf("not allowed here, go to %s", decision.Target)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	username := fs.String("username", "", "username (min 3 characters)")
	email := fs.String("email", "", "email address")
	displayName := fs.String("display-name", "", "name shown in the UI")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.guard(routes.PathRegister); err != nil {
		return err
	}

	input := session.RegisterInput{
		Username:    strings.TrimSpace(*username),
		Email:       strings.TrimSpace(*email),
		DisplayName: strings.TrimSpace(*displayName),
		Password:    *password,
	}
	if input.Username == "" {
		input.Username = a.prompt("Username: ")
	}
	if input.Email == "" {
		input.Email = a.prompt("Email: ")
	}
	if input.DisplayName == "" {
		input.DisplayName = a.prompt("Display name: ")
	}
	if input.Password == "" {
		value, err := a.promptPassword("Password: ")
		if err != nil {
			return err
		}
		input.Password = value
	}

	if err := a.sessions.Register(ctx, input); err != nil {
		return err
	}
	state := a.sessions.Snapshot()
	fmt.Fprintf(a.stdout, "Welcome, %s! You are now signed in.\n", state.User.DisplayName)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.guard(routes.PathLogin); err != nil {
		return err
	}

	name := strings.TrimSpace(*username)
	if name == "" {
		name = a.prompt("Username: ")
	}
	secret := *password
	if secret == "" {
		value, err := a.promptPassword("Password: ")
		if err != nil {
			return err
		}
		secret = value
	}

	if err := a.sessions.Login(ctx, name, secret); err != nil {
		return err
	}
	state := a.sessions.Snapshot()
	fmt.Fprintf(a.stdout, "Signed in as %s.\n", state.User.Username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	a.sessions.Logout(ctx)
	fmt.Fprintln(a.stdout, "Signed out.")
	return nil
}

func (a *app) whoami() error {
	state := a.sessions.Snapshot()
	if !state.IsAuthenticated() {
		fmt.Fprintln(a.stdout, "Not signed in.")
		return nil
	}
	if state.User == nil {
		// A persisted token without a readable user record still counts.
		fmt.Fprintln(a.stdout, "Signed in (no user record on file).")
		return nil
	}
	fmt.Fprintf(a.stdout, "%s <%s>\n", state.User.Username, state.User.Email)
	return nil
}

func (a *app) prompt(label string) string {
	fmt.Fprint(a.stdout, label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptPassword reads without echo when stdin is a terminal and falls back
// to a plain line read when it is not (tests, pipes).
func (a *app) promptPassword(label string) (string, error) {
	fmt.Fprint(a.stdout, label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(a.stdout)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// renderError prefers the public message and appends field details when the
// error carries them.
func renderError(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err.Error()
	}
	message := pkgerrors.UserMessage(err)
	details, ok := typed.Details().(map[string]string)
	if !ok || len(details) == 0 {
		return message
	}
	parts := make([]string, 0, len(details))
	for field, hint := range details {
		parts = append(parts, field+" "+hint)
	}
	return message + " (" + strings.Join(parts, "; ") + ")"
}
