package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chris/worklog/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login [token]",
	Short: "Save the access token used for summary generation",
	Long: `Save an access token for the summary service.
The token is taken from the argument, or read from stdin (without echo on a terminal).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved access token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		token, err = readToken(cmd)
		if err != nil {
			return err
		}
	}
	token = strings.TrimSpace(token)

	info := auth.Inspect(token)
	if info.Expired(nowFunc()) {
		return fmt.Errorf("token expired at %s", info.ExpiresAt.Local().Format(time.RFC3339))
	}

	if err := auth.WriteTokenFile(cfg.Auth.TokenFile, token); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if info.Subject != "" {
		fmt.Fprintf(out, "Logged in as %s\n", info.Subject)
	} else {
		fmt.Fprintln(out, "Logged in")
	}
	if info.ExpiresAt != nil {
		fmt.Fprintf(out, "Token expires %s\n", info.ExpiresAt.Local().Format("Mon Jan 2 15:04"))
	}
	return nil
}

// readToken prompts on a terminal, otherwise reads the first line of stdin
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Access token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return line, nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := auth.RemoveTokenFile(cfg.Auth.TokenFile); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}
