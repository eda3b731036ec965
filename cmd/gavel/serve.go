// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/blinklabs-io/gavel/internal/node"
	"github.com/spf13/cobra"
)

func serveRun(cmd *cobra.Command, flags *globalFlags) error {
	cfg, err := configFromContext(cmd)
	if err != nil {
		return err
	}
	logger := commonRun(os.Stdout, flags.debug)
	// Run node
	return node.Run(cfg, logger)
}

func serveCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, flags)
		},
	}
	return cmd
}

func journalCommand(flags *globalFlags) *cobra.Command {
	var from uint64
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the operation journal as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd)
			if err != nil {
				return err
			}
			logger := commonRun(cmd.ErrOrStderr(), flags.debug)
			entries, err := node.Journal(cfg, logger, from, limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, entry := range entries {
				if err := enc.Encode(entry); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 1, "first journal sequence to print")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries to print, 0 for all")
	return cmd
}

func verifyCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay the journal and compare it with the stored state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd)
			if err != nil {
				return err
			}
			logger := commonRun(cmd.ErrOrStderr(), flags.debug)
			result, err := node.Verify(cfg, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, mismatch := range result.Mismatches {
				fmt.Fprintln(out, mismatch)
			}
			if !result.Ok() {
				return errors.New("journal does not match stored state")
			}
			fmt.Fprintf(out, "journal verified: %d entries\n", result.Entries)
			return nil
		},
	}
	return cmd
}
