package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dndbuilder/internal/mail"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Inspect email templates",
}

var mailPreviewCmd = &cobra.Command{
	Use:   "preview <name>",
	Short: "Render a template with sample data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc := mail.NewService(mail.Config{FrontendURL: cfg.FrontendURL})
		html, err := svc.Preview(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), html)
		return nil
	},
}

var mailListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := mail.NewService(mail.Config{}).ListTemplates()
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	mailCmd.AddCommand(mailPreviewCmd, mailListCmd)
}
