// Command demochat runs a demo conversation against the server from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cove/agent-demo/internal/booking"
	"github.com/cove/agent-demo/internal/client"
	apperrors "github.com/cove/agent-demo/internal/errors"
	"github.com/cove/agent-demo/internal/model"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		serverURL string
		calLink   string
		stream    bool
	)

	cmd := &cobra.Command{
		Use:   "demochat",
		Short: "Text with a demo agent grounded in a company's website",
		Long: `demochat creates or resumes a demo session and lets you text the agent.

Inside a conversation:
  /dismiss   hide the booking prompt for this conversation
  /quit      leave

Examples:
  demochat start --website acme.com --email you@acme.com --agent support
  demochat resume 3f2b...`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&serverURL, "server", envOr("DEMO_SERVER_URL", "http://localhost:8080"), "demo server base URL")
	cmd.PersistentFlags().StringVar(&calLink, "cal-link", envOr("CAL_LINK", booking.DefaultCalLink), "cal.com link for the booking prompt")
	cmd.PersistentFlags().BoolVar(&stream, "stream", false, "print replies as they are generated")

	opts := func() (*client.Client, chatOptions) {
		c := client.New(serverURL, nil)
		return c, chatOptions{api: c, stream: stream}
	}

	cmd.AddCommand(startCmd(opts, &calLink), resumeCmd(opts))
	return cmd
}

func startCmd(opts func() (*client.Client, chatOptions), calLink *string) *cobra.Command {
	var website, email, agent string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Create a new demo session and start texting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := model.ParseAgentType(agent); err != nil {
				return err
			}

			c, o := opts()
			fmt.Fprintf(cmd.OutOrStdout(), "Reading %s...\n", website)

			created, err := c.CreateDemo(cmd.Context(), client.CreateDemoRequest{
				Website:   website,
				Email:     email,
				AgentType: agent,
			})
			if err != nil {
				return fmt.Errorf("create demo: %w", err)
			}

			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), o, chatState{
				sessionID:   created.SessionID,
				companyName: created.CompanyName,
				agentType:   created.AgentType,
				bookingURL:  booking.URL(*calLink, email),
			})
		},
	}

	cmd.Flags().StringVar(&website, "website", "", "company website (scheme optional)")
	cmd.Flags().StringVar(&email, "email", "", "your work email")
	cmd.Flags().StringVar(&agent, "agent", string(model.AgentTypeSupport), "agent persona: "+model.AgentTypeList())
	cmd.MarkFlagRequired("website")
	cmd.MarkFlagRequired("email")

	return cmd
}

func resumeCmd(opts func() (*client.Client, chatOptions)) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <sessionId>",
		Short: "Continue an existing demo session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, o := opts()

			session, err := c.GetSession(cmd.Context(), args[0])
			if apperrors.IsNotFound(err) {
				return fmt.Errorf("no demo session with id %s", args[0])
			}
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}

			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), o, chatState{
				sessionID:    session.ID,
				companyName:  session.CompanyName,
				agentType:    session.AgentType,
				bookingURL:   session.BookingURL,
				bookingShown: session.BookingShown,
				history:      session.Messages,
				messageCount: session.MessageCount,
			})
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
