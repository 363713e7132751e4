package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/puntualdev/puntual/internal/session"
)

// LoginCmd authenticates with the gateway and stores the session locally.
type LoginCmd struct {
	Email    string `arg:"" help:"Account email"`
	Password string `help:"Password; read from stdin when omitted" env:"PUNTUAL_PASSWORD"`
	clientFlags
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	_, manager, err := l.connect(globals)
	if err != nil {
		return err
	}

	password := l.Password
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}
	if password == "" {
		return errors.New("password is required")
	}

	sess, err := manager.Login(ctx, l.Email, password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			return errors.New("invalid email or password")
		}
		return err
	}

	fmt.Printf("Logged in as %s (user %d)\n", l.Email, sess.UserID)
	return nil
}

// LogoutCmd revokes the gateway session and clears local state.
type LogoutCmd struct {
	clientFlags
}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	_, manager, err := l.connect(globals)
	if err != nil {
		return err
	}

	if err := manager.Logout(ctx); err != nil {
		return err
	}

	fmt.Println("Logged out.")
	return nil
}

// WhoamiCmd shows the authenticated account.
type WhoamiCmd struct {
	clientFlags
}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := w.connect(globals)
	if err != nil {
		return err
	}

	user, err := client.Me(ctx)
	if err != nil {
		return friendlyError(err)
	}

	fmt.Printf("ID:     %d\n", user.ID)
	fmt.Printf("Email:  %s\n", user.Email)
	if user.FullName != "" {
		fmt.Printf("Name:   %s\n", user.FullName)
	}
	return nil
}
