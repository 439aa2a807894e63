package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nebari-dev/codepad/internal/cliclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	saveFile       string
	lockPassword   string
	unlockPassword string
)

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a workspace, creating it if absent",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var saveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Replace the text of a workspace",
	Long: `Replace the text of a workspace with the contents of a file or stdin.

Examples:
  codepad save notes -f notes.txt
  echo "hello" | codepad save notes`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

var lockCmd = &cobra.Command{
	Use:   "lock <name>",
	Short: "Lock a workspace with a password",
	Args:  cobra.ExactArgs(1),
	RunE:  runLock,
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <name>",
	Short: "Unlock a workspace and print its text",
	Long: `Unlock a workspace. Operators logged in with an admin account may
unlock without the password by passing an empty one.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnlock,
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a workspace with a random name",
	Args:  cobra.NoArgs,
	RunE:  runNew,
}

func init() {
	saveCmd.Flags().StringVarP(&saveFile, "file", "f", "", "Read content from file instead of stdin")
	lockCmd.Flags().StringVar(&lockPassword, "password", "", "Password (prompted when omitted)")
	unlockCmd.Flags().StringVar(&unlockPassword, "password", "", "Password (prompted when omitted)")
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := getAPIClient()
	if err != nil {
		return err
	}

	ws, err := client.GetWorkspace(withContext(cmd.Context()), args[0])
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, ws, func(w io.Writer) error {
		if ws.Locked {
			fmt.Fprintf(cmd.ErrOrStderr(), "(workspace %q is locked)\n", ws.Name)
		}
		_, err := io.WriteString(w, ws.Content)
		return err
	})
}

func runSave(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if saveFile != "" {
		data, err = os.ReadFile(saveFile)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}

	client, err := getAPIClient()
	if err != nil {
		return err
	}
	if err := client.SaveWorkspace(withContext(cmd.Context()), args[0], string(data)); err != nil {
		if cliclient.IsLocked(err) {
			return fmt.Errorf("workspace %q is locked; unlock it first", args[0])
		}
		return err
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, cliclient.StatusResponse{Status: "saved"}, func(w io.Writer) error {
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s (%d bytes)\n", args[0], len(data))
		return nil
	})
}

func runLock(cmd *cobra.Command, args []string) error {
	password := lockPassword
	if password == "" {
		var err error
		password, err = promptPassword(cmd, "Password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword(cmd, "Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	client, err := getAPIClient()
	if err != nil {
		return err
	}
	if err := client.LockWorkspace(withContext(cmd.Context()), args[0], password); err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, cliclient.StatusResponse{Status: "locked"}, func(w io.Writer) error {
		fmt.Fprintf(cmd.ErrOrStderr(), "Locked %s\n", args[0])
		return nil
	})
}

func runUnlock(cmd *cobra.Command, args []string) error {
	password := unlockPassword
	if password == "" && !cmd.Flags().Changed("password") {
		var err error
		password, err = promptPassword(cmd, "Password: ")
		if err != nil {
			return err
		}
	}

	client, err := getAPIClient()
	if err != nil {
		return err
	}
	text, err := client.UnlockWorkspace(withContext(cmd.Context()), args[0], password)
	if err != nil {
		switch {
		case cliclient.IsNotFound(err):
			return fmt.Errorf("workspace %q does not exist", args[0])
		case cliclient.IsUnauthorized(err):
			return fmt.Errorf("wrong password for %q", args[0])
		}
		return err
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, cliclient.StatusResponse{Status: "unlocked", Content: text}, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}

func runNew(cmd *cobra.Command, args []string) error {
	client, err := getAPIClient()
	if err != nil {
		return err
	}

	ctx := withContext(cmd.Context())
	name, err := client.RandomName(ctx)
	if err != nil {
		return err
	}
	ws, err := client.GetWorkspace(ctx, name)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, ws, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, ws.Name)
		return err
	})
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pass, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pass), nil
	}

	line, err := readLine(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return line, nil
}

// readLine reads up to the first newline without buffering past it.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err == io.EOF {
			if sb.Len() == 0 {
				return "", io.ErrUnexpectedEOF
			}
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}

// withContext falls back to Background for commands run outside Execute.
func withContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
