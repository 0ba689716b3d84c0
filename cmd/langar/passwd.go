package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/openlangar/langar/internal/auth"
)

func newPasswdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Generate the admin password hash",
		Long:  "Prompts for a password and prints the bcrypt hash to put in the\nadmin.password_hash config key (or LANGAR_ADMIN_PASSWORD_HASH).",
		RunE:  runPasswd,
	}
	return cmd
}

func runPasswd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Add to langar.yaml:")
	fmt.Fprintf(out, "\nadmin:\n  password_hash: %q\n", hash)
	return nil
}

// readPassword hides input on a real terminal and falls back to reading a
// line when stdin is a pipe, which is how tests drive it.
func readPassword(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, "New admin password: ")

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", fmt.Errorf("no password provided")
	}
	return scanner.Text(), nil
}
