package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/puntualdev/puntual/internal/gateway"
)

// CredentialsCmd manages the attendance provider credentials stored by the
// gateway.
type CredentialsCmd struct {
	Set  CredentialsSetCmd  `cmd:"" help:"Store attendance provider credentials"`
	Show CredentialsShowCmd `cmd:"" help:"Show stored attendance provider credentials"`
}

// CredentialsSetCmd stores provider credentials. The password is write-only;
// the gateway never returns it.
type CredentialsSetCmd struct {
	CompanyID int    `required:"" help:"Provider company id"`
	UserID    int    `required:"" help:"Provider user id"`
	Password  string `help:"Provider password; read from stdin when omitted"`
	clientFlags
}

func (c *CredentialsSetCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := c.connect(globals)
	if err != nil {
		return err
	}

	password := c.Password
	if password == "" {
		fmt.Fprint(os.Stderr, "Provider password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}
	if password == "" {
		return errors.New("password is required")
	}

	result, err := client.SaveCredentials(ctx, gateway.CredentialsRequest{
		CompanyID: c.CompanyID,
		UserID:    c.UserID,
		Password:  password,
	})
	if err != nil {
		return friendlyError(err)
	}

	if result.Message != "" {
		fmt.Println(result.Message)
	} else {
		fmt.Println("Credentials stored.")
	}
	return nil
}

// CredentialsShowCmd shows what the gateway has stored.
type CredentialsShowCmd struct {
	clientFlags
}

func (c *CredentialsShowCmd) Run(ctx context.Context, globals *Globals) error {
	client, _, err := c.connect(globals)
	if err != nil {
		return err
	}

	creds, err := client.Credentials(ctx)
	if err != nil {
		if errors.Is(err, gateway.ErrNoStoredCredentials) {
			fmt.Println("No credentials stored.")
			fmt.Println()
			fmt.Println("To store credentials:")
			fmt.Println("  puntual credentials set --company-id <id> --user-id <id>")
			return nil
		}
		return friendlyError(err)
	}

	fmt.Printf("Company ID:  %d\n", creds.CompanyID)
	fmt.Printf("User ID:     %d\n", creds.UserID)
	fmt.Printf("Password:    %s\n", storedLabel(creds.HasPassword))
	return nil
}

func storedLabel(stored bool) string {
	if stored {
		return "stored"
	}
	return "not stored"
}
