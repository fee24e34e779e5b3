// Package main provides spacemouse-ctl, the control client for the
// spacemouse-desktop daemon.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"spacemouse-desktop/internal/control"
)

var socketPath string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "spacemouse-ctl",
		Short:        "Control a running spacemouse-desktop daemon",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", "", "control socket path (default: $SPACEMOUSE_SOCKET or $XDG_RUNTIME_DIR/spacemouse-cmd.sock)")

	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newReloadCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newWatchCmd())
	return rootCmd
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <name>",
		Short: "Switch the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := control.NewClient(socketPath).Profile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active profile: %s\n", name)
			return nil
		},
	}
}

func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the profile document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := control.NewClient(socketPath).Reload(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reload requested")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active profile and all loaded profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := control.NewClient(socketPath).Status()
			if err != nil {
				return err
			}
			styled := term.IsTerminal(int(os.Stdout.Fd()))
			fmt.Fprint(cmd.OutOrStdout(), renderStatus(st, styled))
			return nil
		},
	}
}

var labelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("250")).
	Width(10).
	Align(lipgloss.Right).
	PaddingRight(2)

var activeStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("10")).
	Bold(true)

var dimStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241"))

// renderStatus formats a STATUS reply. Plain output is one "key: value"
// line per field so scripts can parse it.
func renderStatus(st control.Status, styled bool) string {
	if !styled {
		return fmt.Sprintf("active: %s\nprofiles: %s\n", st.Active, strings.Join(st.Profiles, " "))
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Active") + activeStyle.Render(st.Active) + "\n")
	for i, name := range st.Profiles {
		label := ""
		if i == 0 {
			label = "Profiles"
		}
		value := dimStyle.Render(name)
		if name == st.Active {
			value = activeStyle.Render(name)
		}
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	return b.String()
}
