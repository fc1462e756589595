// Copyright (c) 2026 tocmover contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.

// Package cmd builds the tocmover command tree (C6, SPEC_FULL.md §4.6): one
// cobra.Command root, package-level command vars, and a PersistentPreRunE
// that wires global flags before any subcommand body runs — the shape of
// azcopy's cmd/root.go, scaled down to this core's single coordinator and
// single credential pool.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/wastore/tocmover/common"
	"github.com/wastore/tocmover/coordinator"
	"github.com/wastore/tocmover/credential"
	"github.com/wastore/tocmover/mover"
)

var (
	outputTypeRaw      string
	configPathFlag     string
	dataMoverURLFlag   string
	pacificOffsetHoursFlag int
)

// Process-lifetime collaborators, built once in rootCmd's PersistentPreRunE
// and shared by every subcommand (SPEC_FULL.md §1: "the CLI process owns
// exactly one coordinator and one credential pool for its lifetime").
var (
	pool   *credential.Pool
	coord  *coordinator.Coordinator
	logger common.Logger
)

var rootCmd = &cobra.Command{
	Use:           "tocmover",
	Short:         "Cloud-to-cloud bulk transfer coordinator",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		configPath := configPathFlag
		if configPath == "" {
			configPath = common.GetEnvironmentVariable(common.EEnvironmentVariable.ConfigPath())
		}
		cfg, err := common.LoadConfig(configPath)
		if err != nil {
			return err
		}

		dataMoverURL := dataMoverURLFlag
		if dataMoverURL == "" {
			dataMoverURL = common.GetEnvironmentVariable(common.EEnvironmentVariable.DataMoverURL())
		}
		if dataMoverURL == "" {
			dataMoverURL = cfg.DataMoverURL
		}
		if dataMoverURL == "" {
			return errors.New("tocmover: no data-mover URL given (--data-mover-url, TOCMOVER_DATA_MOVER_URL, or config file)")
		}

		pacificOffset := pacificOffsetHoursFlag
		if pacificOffset == 0 {
			pacificOffset = cfg.PacificOffsetHours
		}

		var level common.LogLevel
		levelRaw := common.GetEnvironmentVariable(common.EEnvironmentVariable.LogLevel())
		if err := level.Parse(levelRaw); err != nil {
			level = common.ELogLevel.Info()
		}
		logger = common.NewLogger(nil, level, "")

		client := mover.NewClient(dataMoverURL, 60*time.Second)
		pool = credential.NewPool(logger, pacificOffset)
		coord = coordinator.NewCoordinator(client, pool, logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputTypeRaw, "output-type", "text", "output format: text or json")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "path to an optional YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataMoverURLFlag, "data-mover-url", "", "base URL of the data mover's JSON-RPC endpoint")
	rootCmd.PersistentFlags().IntVar(&pacificOffsetHoursFlag, "pacific-offset-hours", 0, "override the fixed Pacific UTC offset used for Google-flavoured reset scheduling")

	rootCmd.AddCommand(credentialsCmd)
	rootCmd.AddCommand(parallelCmd)
}

// Execute runs the command tree, returning the process exit code the way
// cmd/tocmover/main.go's caller expects (SPEC_FULL.md §7).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tocmover:", err)
		return exitCodeFor(err)
	}
	return exitOK
}
