package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		message   string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run one exchange and print the reply",
		Long:  "One-shot exchange against the configured model and tools, without starting the HTTP server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if message == "" {
				return fmt.Errorf("--message is required")
			}

			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.agent.Exchange(cmd.Context(), sessionID, message)
			if err != nil {
				return err
			}

			fmt.Println(result.Response)
			if len(result.Steps) > 0 {
				fmt.Println()
				for _, step := range result.Steps {
					fmt.Printf("  [%s] %s -> %s\n", step.Tool, step.Input, step.Output)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "The user message to send")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "default", "Session identifier")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(versionString())
		},
	}
}
