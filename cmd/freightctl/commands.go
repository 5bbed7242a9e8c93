package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/deeplink"
	"github.com/matheus3301/freightmsg/internal/lock"
	"github.com/matheus3301/freightmsg/internal/session"
	"github.com/matheus3301/freightmsg/internal/textclean"
	"github.com/matheus3301/freightmsg/internal/tui/client"
)

// offlineStatus is printed by status when no daemon answers.
type offlineStatus struct {
	Session string       `json:"session"`
	Running bool         `json:"running"`
	Holder  *lock.Holder `json:"lock_holder,omitempty"`
}

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		Long:  "Shows the daemon's session state. When no daemon answers, reports who holds the session lock, if anyone.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			c, name, err := g.connect()
			if errors.Is(err, client.ErrNotRunning) {
				st := offlineStatus{Session: name}
				if h, held, lockErr := lock.Inspect(session.LockPath(name)); lockErr == nil && held {
					st.Holder = &h
				}
				if g.json {
					return outputJSON(out, st)
				}
				fmt.Fprintf(out, "Session: %s\nDaemon:  stopped\n", name)
				if st.Holder != nil {
					fmt.Fprintf(out, "Lock:    held by pid %d since %s\n", st.Holder.PID, st.Holder.Since.Format(time.RFC3339))
				}
				return nil
			}
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()
			info, err := c.Session(ctx)
			if err != nil {
				return err
			}
			if g.json {
				return outputJSON(out, info)
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Session:\t%s\n", info.Session)
			fmt.Fprintf(w, "Status:\t%s\n", info.Status)
			if info.Authenticated {
				fmt.Fprintf(w, "User:\t%s (%s, %s)\n", dash(info.Name), dash(info.UserID), info.Role.Label())
			} else {
				fmt.Fprintf(w, "User:\tnot signed in\n")
			}
			fmt.Fprintf(w, "Conversations:\t%d\n", info.Conversations)
			fmt.Fprintf(w, "Messages:\t%d\n", info.Messages)
			fmt.Fprintf(w, "Pending sends:\t%d\n", info.PendingSends)
			if info.LastRefresh != nil {
				fmt.Fprintf(w, "Last refresh:\t%s\n", info.LastRefresh.Local().Format(time.RFC3339))
			}
			fmt.Fprintf(w, "Uptime:\t%s\n", (time.Duration(info.UptimeMs) * time.Millisecond).Round(time.Second))
			return w.Flush()
		},
	}
}

func newConversationsCmd(g *globals) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"ls"},
		Short:   "List conversations",
		Long:    "Lists the inbox, most recent first. --refresh reloads it from the marketplace first.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withClient(cmd, func(ctx context.Context, c *api.Client) error {
				list, err := c.Conversations(ctx, refresh)
				if err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd.OutOrStdout(), list)
				}
				return printConversations(cmd, list)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload from the marketplace before listing")
	return cmd
}

func printConversations(cmd *cobra.Command, list []convo.Conversation) error {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No conversations.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOUNTERPART\tSHIPMENT\tUNREAD\tLAST\tMESSAGE")
	for _, c := range list {
		last := ""
		if !c.LastMessageAt.IsZero() {
			last = c.LastMessageAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			c.ID, clip(c.CounterpartName, 30), dash(c.TrackingNumber), c.UnreadCount, dash(last), clip(c.LastMessage, 50))
	}
	return w.Flush()
}

func newOpenCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "open <conversation-id>",
		Short: "Open a conversation and print its thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withClient(cmd, func(ctx context.Context, c *api.Client) error {
				conv, err := c.Open(ctx, args[0])
				if err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd.OutOrStdout(), conv)
				}
				return printThread(cmd, conv)
			})
		},
	}
}

func printThread(cmd *cobra.Command, c *convo.Conversation) error {
	out := cmd.OutOrStdout()
	if c == nil {
		fmt.Fprintln(out, "No conversation.")
		return nil
	}
	header := c.CounterpartName
	if c.TrackingNumber != "" {
		header += " · " + c.TrackingNumber
	}
	fmt.Fprintf(out, "%s\n\n", header)
	if len(c.Messages) == 0 {
		fmt.Fprintln(out, "No messages yet.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, m := range c.Messages {
		status := ""
		if m.IsMine {
			status = string(m.Status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Time, m.From, dash(status), oneLine(m.Text))
	}
	return w.Flush()
}

func newSendCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "send <conversation-id> <text...>",
		Short: "Send a message",
		Long:  "Sends text to a conversation through the daemon's optimistic send pipeline and prints the updated thread.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return g.withClient(cmd, func(ctx context.Context, c *api.Client) error {
				conv, err := c.Send(ctx, args[0], text)
				if err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd.OutOrStdout(), conv)
				}
				return printThread(cmd, conv)
			})
		},
	}
}

func newDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <conversation-id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withClient(cmd, func(ctx context.Context, c *api.Client) error {
				if err := c.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newSearchCmd(g *globals) *cobra.Command {
	var (
		conversationID string
		limit          int
	)
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search cached messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.SearchRequest{Query: strings.Join(args, " "), ConversationID: conversationID, Limit: limit}
			return g.withClient(cmd, func(ctx context.Context, c *api.Client) error {
				hits, err := c.Search(ctx, req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if g.json {
					return outputJSON(out, hits)
				}
				if len(hits) == 0 {
					fmt.Fprintf(out, "No messages match %q\n", req.Query)
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CONVERSATION\tFROM\tWHEN\tTEXT")
				for _, h := range hits {
					when := ""
					if h.CreatedAt != nil {
						when = h.CreatedAt.Local().Format("2006-01-02 15:04")
					}
					text := h.Snippet
					if text == "" {
						text = h.Body
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", h.ConversationID, h.SenderName, dash(when), clip(text, 60))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "restrict to one conversation")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of results")
	return cmd
}

func newOutboxCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Show the send journal",
		Long:  "Lists recent send attempts with their state: queued, sending, sent or failed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withClient(cmd, func(ctx context.Context, c *api.Client) error {
				entries, err := c.Outbox(ctx, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if g.json {
					return outputJSON(out, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "Outbox is empty.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CLIENT ID\tCONVERSATION\tSTATUS\tCREATED\tBODY\tERROR")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						e.ClientMsgID, e.ConversationID, e.Status,
						e.CreatedAt.Local().Format("2006-01-02 15:04:05"), clip(e.Body, 40), dash(e.Error))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")
	return cmd
}

func newLinkCmd(g *globals) *cobra.Command {
	var req api.LinkRequest
	cmd := &cobra.Command{
		Use:   "link [query]",
		Short: "Open a conversation from a deep link",
		Long: "Opens the conversation with a counterpart, optionally about a shipment. The target is given with flags " +
			"or as a deep link query such as \"userId=7&shipmentId=42&prefill=Merhaba\".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				l, err := deeplink.ParseQuery(args[0])
				if err != nil {
					return fmt.Errorf("invalid link: %w", err)
				}
				req = api.LinkRequest{UserID: l.UserID, ShipmentID: l.ShipmentID, Prefill: l.Prefill}
			}
			if req.UserID == "" && req.ShipmentID == "" {
				return errors.New("link needs --user or --shipment")
			}
			return g.withClient(cmd, func(ctx context.Context, c *api.Client) error {
				conv, err := c.ApplyDeepLink(ctx, req)
				if err != nil {
					return err
				}
				if g.json {
					return outputJSON(cmd.OutOrStdout(), conv)
				}
				return printThread(cmd, conv)
			})
		},
	}
	cmd.Flags().StringVar(&req.UserID, "user", "", "counterpart user ID")
	cmd.Flags().StringVar(&req.ShipmentID, "shipment", "", "shipment ID")
	cmd.Flags().StringVar(&req.Prefill, "prefill", "", "draft text to prefill")
	return cmd
}

func newLogoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign the daemon out of the marketplace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withClient(cmd, func(ctx context.Context, c *api.Client) error {
				if err := c.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
				return nil
			})
		},
	}
}

func newWatchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [namespace]",
		Short: "Stream daemon events",
		Long:  "Prints daemon events as they happen until interrupted. A namespace such as \"message\" or \"inbox\" filters them.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := ""
			if len(args) == 1 {
				namespace = args[0]
			}
			c, _, err := g.connect()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			err = c.Watch(ctx, namespace, func(evt api.Event) error {
				if g.json {
					return outputJSON(out, evt)
				}
				_, err := fmt.Fprintf(out, "%s  %-28s %s\n", evt.Timestamp.Local().Format("15:04:05.000"), evt.Kind, string(evt.Payload))
				return err
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(textclean.ForTerminal(s)), " ")
}

// clip shortens s to n runes on one line.
func clip(s string, n int) string {
	s = oneLine(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
