package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"export-service/internal/clients/export"
)

var (
	baseURL  string
	orgID    string
	username string
	userID   string
)

func newClient() (*export.Client, error) {
	return export.NewClient(baseURL, orgID, username, userID)
}

func main() {
	root := &cobra.Command{
		Use:   "export-cli",
		Short: "Command line client for the export service",
	}

	root.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8000", "Export service base URL")
	root.PersistentFlags().StringVar(&orgID, "org", "", "Organization ID")
	root.PersistentFlags().StringVar(&username, "user", "", "Username")
	root.PersistentFlags().StringVar(&userID, "user-id", "", "User ID")
	root.MarkPersistentFlagRequired("org")
	root.MarkPersistentFlagRequired("user")
	root.MarkPersistentFlagRequired("user-id")

	root.AddCommand(
		typesCommand(),
		providersCommand(),
		previewCommand(),
		runCommand(),
		cancelCommand(),
		statusCommand(),
		downloadCommand(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func typesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the exportable entity types",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			types, err := client.KnownTypes(cmd.Context())
			if err != nil {
				return err
			}

			for _, t := range types {
				fmt.Printf("%s (requires %s)\n", t.Name, t.RequiredPermission)
			}
			return nil
		},
	}
}

func providersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the available export formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			providers, err := client.Providers(cmd.Context())
			if err != nil {
				return err
			}

			for _, p := range providers {
				fmt.Printf("%s (%s, %s)\n", p.Name, p.ContentType, p.FileExtension)
			}
			return nil
		},
	}
}

func previewCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "preview <type>",
		Short: "Fetch the first page of an export without creating a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			request := export.PreviewRequest{Type: args[0]}
			if query != "" {
				request.Query = json.RawMessage(query)
			}

			preview, err := client.PreviewData(cmd.Context(), request)
			if err != nil {
				return err
			}

			fmt.Printf("Total records: %d\n", preview.TotalCount)
			for _, record := range preview.Results {
				line, err := json.Marshal(record)
				if err != nil {
					return err
				}
				fmt.Println(string(line))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Optional query JSON")
	return cmd
}

func runCommand() *cobra.Command {
	var (
		provider string
		query    string
		wait     bool
	)

	cmd := &cobra.Command{
		Use:   "run <type>",
		Short: "Start a background export job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			request := export.RunRequest{Type: args[0], Provider: provider}
			if query != "" {
				request.Query = json.RawMessage(query)
			}

			notification, err := client.Run(cmd.Context(), request)
			if err != nil {
				return err
			}

			fmt.Printf("%s started (notification: %s, job: %s)\n", notification.Title, notification.ID, notification.JobID)
			if !wait {
				return nil
			}

			for {
				time.Sleep(time.Second)
				current, err := client.GetNotification(cmd.Context(), notification.ID)
				if err != nil {
					return err
				}
				fmt.Printf("  status: %s\n", current.Status)

				switch current.Status {
				case "completed":
					fmt.Printf("Done, download with: export-cli download %s\n", current.FileName)
					return nil
				case "failed":
					return fmt.Errorf("export failed: %s", current.Description)
				case "cancelled":
					return fmt.Errorf("export was cancelled")
				}
			}
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "csv", "Export format provider")
	cmd.Flags().StringVar(&query, "query", "", "Optional query JSON")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job reaches a terminal state")
	return cmd
}

func cancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Request cancellation of an export job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			response, err := client.CancelTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Cancellation requested for job %s\n", response.JobID)
			return nil
		},
	}
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <notification-id>",
		Short: "Show the latest state of an export notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			notification, err := client.GetNotification(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s\n", notification.Title)
			fmt.Printf("  status:      %s\n", notification.Status)
			fmt.Printf("  description: %s\n", notification.Description)
			if notification.JobID != "" {
				fmt.Printf("  job:         %s\n", notification.JobID)
			}
			if notification.FileName != "" {
				fmt.Printf("  file:        %s\n", notification.FileName)
			}
			fmt.Printf("  updated:     %s\n", notification.UpdatedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func downloadCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <file-name>",
		Short: "Download a finished export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			data, contentType, err := client.Download(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output == "" {
				output = args[0]
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			fmt.Printf("Wrote %d bytes to %s (%s)\n", len(data), output, contentType)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to the export file name)")
	return cmd
}
