package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nebari-dev/codepad/internal/cliclient"
	"github.com/spf13/cobra"
)

var (
	auditWorkspace string
	auditAction    string
	auditLimit     int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all workspaces (admin only)",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit log (admin only)",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVarP(&auditWorkspace, "workspace", "w", "", "Only entries for this workspace")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "Only entries with this action")
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 50, "Maximum entries")
}

func adminError(err error) error {
	switch {
	case cliclient.IsUnauthorized(err):
		return fmt.Errorf("not logged in. Run 'codepad login <url>' first")
	case cliclient.IsForbidden(err):
		return fmt.Errorf("this command requires an admin account")
	}
	return err
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := getAPIClient()
	if err != nil {
		return err
	}

	workspaces, err := client.ListWorkspaces(withContext(cmd.Context()))
	if err != nil {
		return adminError(err)
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, workspaces, func(out io.Writer) error {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tLOCKED\tUPDATED")
		for _, ws := range workspaces {
			fmt.Fprintf(w, "%s\t%t\t%s\n", ws.Name, ws.Locked, formatTimeAgo(ws.UpdatedAt))
		}
		return w.Flush()
	})
}

func runAudit(cmd *cobra.Command, args []string) error {
	client, err := getAPIClient()
	if err != nil {
		return err
	}

	logs, err := client.ListAuditLogs(withContext(cmd.Context()), auditWorkspace, auditAction, auditLimit)
	if err != nil {
		return adminError(err)
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, logs, func(out io.Writer) error {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTION\tRESOURCE")
		for _, l := range logs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", l.Timestamp.Local().Format(time.DateTime), l.Action, l.Resource)
		}
		return w.Flush()
	})
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	default:
		return plural(int(d.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
