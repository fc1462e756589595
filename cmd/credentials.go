package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wastore/tocmover/common"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage provider credentials and quota",
}

var credentialsAddDailyLimitGB float64
var credentialsAddName string

var credentialsImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Bulk-import credential blobs from a directory, auto-detecting each provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := pool.ImportFolder(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("imported %d credential(s) from %s\n", count, args[0])
		return nil
	},
}

var credentialsAddCmd = &cobra.Command{
	Use:   "add <provider> <file>",
	Short: "Register a single credential blob for a provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var provider common.Provider
		if err := provider.Parse(args[0]); err != nil {
			return err
		}
		blob, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		dailyLimit := common.Unlimited
		if credentialsAddDailyLimitGB > 0 {
			dailyLimit = int64(credentialsAddDailyLimitGB * 1_000_000_000)
		}
		id, err := pool.Add(provider, blob, credentialsAddName, dailyLimit)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var credentialsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show every registered credential's quota usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCredentialSnapshot(pool.Status())
	},
}

var credentialsQuotaCmd = &cobra.Command{
	Use:   "quota [provider]",
	Short: "Show remaining quota, optionally filtered to one provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := pool.Status()
		if len(args) == 0 {
			return printCredentialSnapshot(snap)
		}
		var provider common.Provider
		if err := provider.Parse(args[0]); err != nil {
			return err
		}
		filtered := common.PoolStatusSnapshot{}
		for _, c := range snap.Credentials {
			if c.Provider == provider {
				filtered.Credentials = append(filtered.Credentials, c)
			}
		}
		return printCredentialSnapshot(filtered)
	},
}

func printCredentialSnapshot(snap common.PoolStatusSnapshot) error {
	if outputTypeRaw == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	for _, c := range snap.Credentials {
		remaining := "unlimited"
		if c.Remaining != common.Unlimited {
			remaining = fmt.Sprintf("%d bytes", c.Remaining)
		}
		fmt.Printf("%-24s %-10s remaining=%-16s used=%.1f%%\n", c.ID, c.Provider, remaining, c.Utilization*100)
	}
	return nil
}

func init() {
	credentialsAddCmd.Flags().Float64Var(&credentialsAddDailyLimitGB, "daily-limit-gb", 0, "daily upload quota in GB; omitted means the provider default")
	credentialsAddCmd.Flags().StringVar(&credentialsAddName, "name", "", "human-readable display name for this credential")

	credentialsCmd.AddCommand(credentialsImportCmd, credentialsAddCmd, credentialsStatusCmd, credentialsQuotaCmd)
}
