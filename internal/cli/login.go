package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/veilmark/veilmark/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Authenticate and store the access token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var username string
	if len(args) == 1 {
		username = args[0]
	} else {
		fmt.Print("Username: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	var password string
	if stdinIsTerminal() {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	token, err := client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := config.SaveToken(config.DefaultConfigPath(), token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	fmt.Printf("Logged in as %s.\n", username)
	return nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
