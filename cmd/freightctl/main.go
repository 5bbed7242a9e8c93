package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/config"
	"github.com/matheus3301/freightmsg/internal/session"
	"github.com/matheus3301/freightmsg/internal/tui/client"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	session string
	json    bool
	timeout time.Duration
}

func (g *globals) sessionName() (string, error) {
	name := session.Resolve(g.session)
	if err := session.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// connect dials the running daemon. It never starts one.
func (g *globals) connect() (*api.Client, string, error) {
	name, err := g.sessionName()
	if err != nil {
		return nil, "", err
	}
	c, err := client.Connect(name, client.Options{})
	if err != nil {
		return nil, name, err
	}
	return c, name, nil
}

// withClient runs fn against the daemon under the command timeout.
func (g *globals) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *api.Client) error) error {
	c, _, err := g.connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
	defer cancel()
	return fn(ctx, c)
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "freightctl",
		Short:         "freightctl controls a freight messaging session daemon",
		Long:          "freightctl lists marketplace conversations, sends messages and inspects the send journal of a running freightd.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFiles(session.EnvPath(), ".env")
		},
	}
	cmd.PersistentFlags().StringVar(&g.session, "session", "", "session name (overrides config default)")
	cmd.PersistentFlags().BoolVar(&g.json, "json", false, "output in JSON format")
	cmd.PersistentFlags().DurationVar(&g.timeout, "timeout", 20*time.Second, "request timeout")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newStatusCmd(g))
	cmd.AddCommand(newConversationsCmd(g))
	cmd.AddCommand(newOpenCmd(g))
	cmd.AddCommand(newSendCmd(g))
	cmd.AddCommand(newDeleteCmd(g))
	cmd.AddCommand(newSearchCmd(g))
	cmd.AddCommand(newOutboxCmd(g))
	cmd.AddCommand(newLinkCmd(g))
	cmd.AddCommand(newLogoutCmd(g))
	cmd.AddCommand(newWatchCmd(g))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "freightctl %s (commit: %s)\n", Version, Commit)
		},
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe renders daemon errors as "code: message" instead of the raw
// gRPC status string.
func describe(err error) string {
	if s, ok := grpcstatus.FromError(err); ok {
		return fmt.Sprintf("%s: %s", s.Code(), s.Message())
	}
	return err.Error()
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", describe(err))
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
