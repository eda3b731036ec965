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
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/blinklabs-io/gavel/api"
	"github.com/blinklabs-io/gavel/types"
	"github.com/spf13/cobra"
)

const defaultApiURL = "http://localhost:9090"

type clientFlags struct {
	url    string
	caller string
	grpc   bool
}

func (f *clientFlags) client() (*api.Client, error) {
	opts := []api.ClientOptionFunc{}
	if f.caller != "" {
		caller, err := types.ParsePrincipal(f.caller)
		if err != nil {
			return nil, fmt.Errorf("caller: %w", err)
		}
		opts = append(opts, api.WithCaller(caller))
	}
	if f.grpc {
		opts = append(opts, api.WithGRPC())
	}
	return api.NewClient(f.url, opts...), nil
}

func parseUint(name, value string) (uint64, error) {
	ret, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return ret, nil
}

func parsePrincipal(name, value string) (types.Principal, error) {
	ret, err := types.ParsePrincipal(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return ret, nil
}

// clientRunE builds the API client and runs fn with it
func clientRunE(
	flags *clientFlags,
	fn func(context.Context, *cobra.Command, *api.Client, []string) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := flags.client()
		if err != nil {
			return err
		}
		return fn(cmd.Context(), cmd, c, args)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func clientCommand() *cobra.Command {
	flags := &clientFlags{}
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Call a running node through its API",
	}
	cmd.PersistentFlags().StringVar(&flags.url, "url", defaultApiURL, "base URL of the node API")
	cmd.PersistentFlags().StringVar(&flags.caller, "caller", "", "principal sent as the caller of the request")
	cmd.PersistentFlags().BoolVar(&flags.grpc, "grpc", false, "use the gRPC protocol (requires TLS or an HTTP/2 client)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "mint <amount> <recipient>",
			Short: "Mint tokens to recipient (owner only)",
			Args:  cobra.ExactArgs(2),
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				amount, err := parseUint("amount", args[0])
				if err != nil {
					return err
				}
				recipient, err := parsePrincipal("recipient", args[1])
				if err != nil {
					return err
				}
				seq, err := c.Mint(ctx, amount, recipient)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sequence: %d\n", seq)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "transfer <amount> <recipient>",
			Short: "Transfer tokens from the caller to recipient",
			Args:  cobra.ExactArgs(2),
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				amount, err := parseUint("amount", args[0])
				if err != nil {
					return err
				}
				recipient, err := parsePrincipal("recipient", args[1])
				if err != nil {
					return err
				}
				seq, err := c.Transfer(ctx, amount, recipient)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sequence: %d\n", seq)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "balance <address>",
			Short: "Show the balance of an address",
			Args:  cobra.ExactArgs(1),
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				address, err := parsePrincipal("address", args[0])
				if err != nil {
					return err
				}
				balance, err := c.GetBalance(ctx, address)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), balance)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "supply",
			Short: "Show the total token supply",
			Args:  cobra.NoArgs,
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				supply, err := c.GetSupply(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), supply)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "register <recipient>",
			Short: "Register recipient as a member (owner only)",
			Args:  cobra.ExactArgs(1),
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				recipient, err := parsePrincipal("recipient", args[0])
				if err != nil {
					return err
				}
				seq, err := c.RegisterMember(ctx, recipient)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sequence: %d\n", seq)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "member <address>",
			Short: "Show whether an address is a member",
			Args:  cobra.ExactArgs(1),
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				address, err := parsePrincipal("address", args[0])
				if err != nil {
					return err
				}
				isMember, err := c.IsMember(ctx, address)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), isMember)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "propose <description> <current-block>",
			Short: "Create a proposal with the caller as proposer",
			Args:  cobra.ExactArgs(2),
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				block, err := parseUint("current block", args[1])
				if err != nil {
					return err
				}
				id, err := c.CreateProposal(ctx, args[0], block)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "proposal: %d\n", id)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "vote <proposal-id> <support> <current-block>",
			Short: "Vote on a proposal with the caller's balance",
			Args:  cobra.ExactArgs(3),
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				id, err := parseUint("proposal id", args[0])
				if err != nil {
					return err
				}
				support, err := strconv.ParseBool(args[1])
				if err != nil {
					return fmt.Errorf("invalid support %q: %w", args[1], err)
				}
				block, err := parseUint("current block", args[2])
				if err != nil {
					return err
				}
				weight, err := c.CastVote(ctx, id, support, block)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "weight: %d\n", weight)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "execute <proposal-id>",
			Short: "Execute a passing proposal",
			Args:  cobra.ExactArgs(1),
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				id, err := parseUint("proposal id", args[0])
				if err != nil {
					return err
				}
				seq, err := c.ExecuteProposal(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sequence: %d\n", seq)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "executed <proposal-id>",
			Short: "Show whether a proposal has been executed",
			Args:  cobra.ExactArgs(1),
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				id, err := parseUint("proposal id", args[0])
				if err != nil {
					return err
				}
				executed, err := c.IsProposalExecuted(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), executed)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "proposal <proposal-id>",
			Short: "Show a proposal",
			Args:  cobra.ExactArgs(1),
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				id, err := parseUint("proposal id", args[0])
				if err != nil {
					return err
				}
				p, err := c.GetProposal(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd, p)
			}),
		},
		&cobra.Command{
			Use:   "proposals",
			Short: "List every proposal",
			Args:  cobra.NoArgs,
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				proposals, err := c.ListProposals(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, proposals)
			}),
		},
		&cobra.Command{
			Use:   "watch [event-type...]",
			Short: "Stream committed operations until interrupted",
			RunE: clientRunE(flags, func(ctx context.Context, cmd *cobra.Command, c *api.Client, args []string) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				enc := json.NewEncoder(cmd.OutOrStdout())
				return c.WatchEvents(ctx, args, func(evt *api.WatchEventsResponse) error {
					return enc.Encode(evt)
				})
			}),
		},
	)
	return cmd
}
