// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Command dndbuilder runs the page builder API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dndbuilder/internal/config"
	"dndbuilder/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "dndbuilder",
	Short:         "Drag-and-drop page builder backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, contentCmd, mailCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		logger.L().Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: "dndbuilder",
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}
