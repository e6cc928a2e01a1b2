// Package console implements the interactive terminal front end for the
// authentication service. It reads menu choices line by line and drives
// the same service layer the HTTP API uses.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/welldanyogia/auth-ledger/internal/auth"
)

const divider = "============================================================"

// App is the interactive console application. Input and output are plain
// io streams so the whole loop can run under test against scripted input.
type App struct {
	service *auth.AuthService
	logger  *slog.Logger
	in      *bufio.Scanner
	out     io.Writer

	// currentUser tracks the logged-in user for this terminal only. The
	// service itself is stateless across calls.
	currentUser *auth.User
	sessionID   string
}

// New creates a console App reading from in and writing to out.
func New(service *auth.AuthService, logger *slog.Logger, in io.Reader, out io.Writer) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		service:   service,
		logger:    logger,
		in:        bufio.NewScanner(in),
		out:       out,
		sessionID: uuid.NewString(),
	}
}

// Run drives the menu loop until the user exits or input is exhausted.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("console session started", "console_session_id", a.sessionID)

	for {
		a.showMenu()
		choice, ok := a.prompt("\nEnter your choice (1-5): ")
		if !ok {
			// Input stream closed, treat like exit.
			fmt.Fprintln(a.out, "\nGoodbye!")
			return a.in.Err()
		}

		switch strings.TrimSpace(choice) {
		case "1":
			a.handleRegister(ctx)
		case "2":
			a.handleLogin(ctx)
		case "3":
			a.handleViewHistory(ctx)
		case "4":
			a.handleLogout(ctx)
		case "5":
			fmt.Fprintln(a.out, "\nGoodbye!")
			return nil
		default:
			fmt.Fprintln(a.out, "\nInvalid choice, pick a number between 1 and 5.")
		}
	}
}

func (a *App) showMenu() {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, divider)
	fmt.Fprintln(a.out, "LOGIN SYSTEM")
	fmt.Fprintln(a.out, divider)
	if a.currentUser != nil {
		fmt.Fprintf(a.out, "Logged in as: %s\n", a.currentUser.Username)
	}
	fmt.Fprintln(a.out, "\nOptions:")
	fmt.Fprintln(a.out, "1. Register")
	fmt.Fprintln(a.out, "2. Login")
	fmt.Fprintln(a.out, "3. View login history")
	fmt.Fprintln(a.out, "4. Logout")
	fmt.Fprintln(a.out, "5. Exit")
	fmt.Fprintln(a.out, divider)
}

// prompt prints the prompt and reads one line. ok is false when input ends.
func (a *App) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		return "", false
	}
	return a.in.Text(), true
}

func (a *App) handleRegister(ctx context.Context) {
	fmt.Fprintln(a.out, "\n--- REGISTER ---")
	username, ok := a.prompt("Username: ")
	if !ok {
		return
	}
	password, ok := a.prompt("Password: ")
	if !ok {
		return
	}
	emailInput, ok := a.prompt("Email (optional): ")
	if !ok {
		return
	}

	var email *string
	if trimmed := strings.TrimSpace(emailInput); trimmed != "" {
		email = &trimmed
	}

	user, err := a.service.Register(ctx, username, password, email)
	if err != nil {
		a.printError(err)
		return
	}

	fmt.Fprintf(a.out, "\nRegistered successfully! ID: %d\n", user.ID)
	a.logger.Info("user registered from console",
		"console_session_id", a.sessionID, "user_id", user.ID)
}

func (a *App) handleLogin(ctx context.Context) {
	if a.currentUser != nil {
		fmt.Fprintln(a.out, "\nYou are already logged in!")
		return
	}

	fmt.Fprintln(a.out, "\n--- LOGIN ---")
	username, ok := a.prompt("Username: ")
	if !ok {
		return
	}
	password, ok := a.prompt("Password: ")
	if !ok {
		return
	}

	user, err := a.service.Login(ctx, username, password, nil)
	if err != nil {
		a.printError(err)
		return
	}

	a.currentUser = user
	fmt.Fprintf(a.out, "\nLogged in successfully! Welcome, %s!\n", user.Username)
	a.logger.Info("user logged in from console",
		"console_session_id", a.sessionID, "user_id", user.ID)
}

func (a *App) handleViewHistory(ctx context.Context) {
	if a.currentUser == nil {
		fmt.Fprintln(a.out, "\nPlease log in first!")
		return
	}

	fmt.Fprintln(a.out, "\n--- LOGIN HISTORY ---")
	history, err := a.service.GetLoginHistory(ctx, a.currentUser.ID)
	if err != nil {
		a.printError(err)
		return
	}

	if len(history) == 0 {
		fmt.Fprintln(a.out, "Login history is empty.")
		return
	}

	fmt.Fprintf(a.out, "\n%d login attempts total:\n\n", len(history))
	for i, entry := range history {
		status := "FAILED"
		if entry.Success {
			status = "OK"
		}
		line := fmt.Sprintf("%d. %s - %s", i+1, entry.LoginTime.Format("2006-01-02 15:04:05"), status)
		if entry.IPAddress != nil {
			line += fmt.Sprintf(" (IP: %s)", *entry.IPAddress)
		}
		fmt.Fprintln(a.out, line)
	}
}

func (a *App) handleLogout(ctx context.Context) {
	if a.currentUser == nil {
		fmt.Fprintln(a.out, "\nYou are not logged in!")
		return
	}

	if _, err := a.service.Logout(ctx, a.currentUser.ID); err != nil {
		a.printError(err)
		return
	}

	fmt.Fprintf(a.out, "\nLogged out successfully! See you, %s!\n", a.currentUser.Username)
	a.currentUser = nil
}

// printError renders a typed error as a user message; anything else gets a
// generic line and a structured log entry.
func (a *App) printError(err error) {
	if appErr, ok := auth.AsError(err); ok && appErr.Kind != auth.KindDatabase {
		fmt.Fprintf(a.out, "\nError: %s\n", appErr.Message)
		return
	}
	fmt.Fprintf(a.out, "\nSomething went wrong: %v\n", err)
	a.logger.Error("console operation failed",
		"console_session_id", a.sessionID, "error", err)
}
