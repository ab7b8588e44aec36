package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/perpgate/internal/crypto"
)

func newEncryptSecretCmd() *cobra.Command {
	var (
		out         string
		passwordEnv string
	)
	cmd := &cobra.Command{
		Use:   "encrypt-secret",
		Short: "Encrypt an API secret read from stdin into a file for exchange.encrypted_secret_path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := os.Getenv(passwordEnv)
			if password == "" {
				return fmt.Errorf("environment variable %s must hold the password", passwordEnv)
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no secret on stdin")
			}

			blob, err := crypto.EncryptSecret(strings.TrimSpace(line), password)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, blob, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			return printJSON(cmd, map[string]string{"path": out})
		},
	}
	cmd.Flags().StringVar(&out, "out", "secret.json", "output file")
	cmd.Flags().StringVar(&passwordEnv, "password-env", "PERPGATE_EXCHANGE_SECRET_PASSWORD", "environment variable holding the encryption password")
	return cmd
}
