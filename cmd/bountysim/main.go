package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/whitehat-labs/sombrero/internal/hostsim"
	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bountysim: %v\n", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bountysim",
		Short:         "Simulate white-hat bounty settlements against an in-memory host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(runCommand(), splitCommand())
	return cmd
}

func runCommand() *cobra.Command {
	var (
		scenarioFile string
		policy       string
		pretty       bool
		verbose      bool
		manual       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a JSON scenario and print the report",
		Long: `Run a scripted scenario through the simulated host.

The scenario file must be JSON with:
- subscribe_policy (optional; "self" or "curated")
- funds (array of {account, asset, amount})
- steps (array of {op, actor, ...}); ops are instantiate, retry_setup,
  update_config, subscribe, update_subscription, unsubscribe, deposit,
  withdraw, advance, fail_next_instantiate and fail_mint

Use "-" to read the scenario from stdin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if scenarioFile == "" {
				return fmt.Errorf("--scenario-file is required")
			}

			var in io.Reader = cmd.InOrStdin()
			if scenarioFile != "-" {
				f, err := os.Open(scenarioFile)
				if err != nil {
					return fmt.Errorf("open scenario: %w", err)
				}
				defer f.Close()
				in = f
			}

			sc, err := hostsim.DecodeScenario(in)
			if err != nil {
				return err
			}
			if policy != "" {
				sc.SubscribePolicy = types.SubscribePolicy(policy)
			}
			if sc.SubscribePolicy != "" {
				if err := sc.SubscribePolicy.Validate(); err != nil {
					return err
				}
			}

			logger := log.NewNopLogger()
			if verbose {
				logger = log.NewLogger(cmd.ErrOrStderr())
			}

			h, err := hostsim.New(hostsim.Config{
				SubscribePolicy: sc.SubscribePolicy,
				Logger:          logger,
				ManualReplies:   manual,
			})
			if err != nil {
				return err
			}

			report, runErr := hostsim.Run(h, sc)
			if err := writeJSON(cmd.OutOrStdout(), report, pretty); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&scenarioFile, "scenario-file", "", "Path to JSON scenario, or - for stdin")
	cmd.Flags().StringVar(&policy, "policy", "", "Override the scenario subscribe policy (self|curated)")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "Pretty-print JSON output")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log keeper activity to stderr")
	cmd.Flags().BoolVar(&manual, "manual-replies", false, "Leave sub-call replies undelivered")
	return cmd
}

func splitCommand() *cobra.Command {
	var (
		amount        string
		commissionBps uint32
		feeBps        uint32
		minBounty     string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Compute the bounty, fee and remainder of a deposit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, ok := sdkmath.NewIntFromString(amount)
			if !ok {
				return fmt.Errorf("invalid --amount %q", amount)
			}

			var floor *sdkmath.Int
			if minBounty != "" {
				v, ok := sdkmath.NewIntFromString(minBounty)
				if !ok {
					return fmt.Errorf("invalid --min-bounty %q", minBounty)
				}
				floor = &v
			}

			split, err := types.ComputeSplit(amt, commissionBps, feeBps, floor)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), split, false)
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Deposited amount")
	cmd.Flags().Uint32Var(&commissionBps, "commission-bps", 0, "Subscription commission in basis points")
	cmd.Flags().Uint32Var(&feeBps, "fee-bps", 0, "Protocol fee in basis points")
	cmd.Flags().StringVar(&minBounty, "min-bounty", "", "Optional minimum bounty")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
