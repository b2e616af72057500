package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dndbuilder/internal/builder"
	"dndbuilder/internal/client"
)

var (
	apiURL   string
	apiToken string
	outPath  string
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Export, import or clear builder content through the API",
}

var contentExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored content as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var w io.Writer = cmd.OutOrStdout()
		if outPath != "" && outPath != "-" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return apiClient().Export(cmd.Context(), w)
	},
}

var contentImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Validate a JSON tree locally and store it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		actions := builder.NewActions(builder.NewContent(), builder.WithSaver(apiClient()))
		if err := actions.Import(r); err != nil {
			return fmt.Errorf("import %s: %w", args[0], err)
		}
		if err := actions.Save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d blocks\n", actions.Content().Len())
		return nil
	},
}

var contentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored content",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return apiClient().Clear(cmd.Context())
	},
}

func init() {
	contentCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("DNDBUILDER_API", "http://localhost:8080"), "API base URL")
	contentCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("DNDBUILDER_TOKEN"), "bearer token (or set DNDBUILDER_TOKEN)")
	contentExportCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	contentCmd.AddCommand(contentExportCmd, contentImportCmd, contentClearCmd)
}

func apiClient() *client.Client {
	return client.New(apiURL, apiToken)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
