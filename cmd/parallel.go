package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"github.com/wastore/tocmover/common"
)

var parallelCmd = &cobra.Command{
	Use:   "parallel",
	Short: "Run and control a TOC-scheduled parallel transfer",
}

var (
	startWorkers              int
	startDryRun               bool
	startLargestFirst         bool
	startArchiveMode          bool
	startGhostLinkOnFailure   string
	startRequeueOnWorkerDeath bool
	statusWatch               bool
)

var parallelStartCmd = &cobra.Command{
	Use:   "start <src> <dst>",
	Short: "Enumerate, classify, and transfer src into dst",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := common.DefaultJobOptions()
		opts.WorkerCount = startWorkers
		opts.DryRun = startDryRun
		opts.LargestFirst = startLargestFirst
		opts.ArchiveMode = startArchiveMode
		opts.RequeueOnWorkerDeath = startRequeueOnWorkerDeath
		switch startGhostLinkOnFailure {
		case "", "transfer":
			opts.LinkFailurePolicy = common.ELinkFailurePolicy.DemoteToTransfer()
		case "skip":
			opts.LinkFailurePolicy = common.ELinkFailurePolicy.Skip()
		default:
			return fmt.Errorf("tocmover: --ghost-link-on-failure must be transfer or skip, got %q", startGhostLinkOnFailure)
		}

		snap, err := coord.Start(args[0], args[1], opts)
		if err != nil {
			return err
		}
		return printJobSnapshot(snap)
	},
}

var parallelStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active job's status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !statusWatch {
			snap, err := coord.Status()
			if err != nil {
				return err
			}
			return printJobSnapshot(snap)
		}
		return watchJobSnapshot()
	},
}

var parallelPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Stop dispatching new work; in-flight transfers finish",
	RunE: func(cmd *cobra.Command, args []string) error {
		return coord.Pause()
	},
}

var parallelResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume dispatching queued work",
	RunE: func(cmd *cobra.Command, args []string) error {
		return coord.Resume()
	},
}

var parallelAbortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Cancel the active job, stopping workers within a bounded delay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return coord.Abort()
	},
}

func printJobSnapshot(snap common.JobSnapshot) error {
	if outputTypeRaw == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	fmt.Printf("job %s: %s  %d/%d files  %.1f%%  %.1f MB/s  %d queued  %d failed\n",
		snap.JobID, snap.Status, snap.CompletedCount, snap.TotalFiles,
		snap.ProgressPercent, snap.ThroughputMBPS, snap.QueuedCount, snap.FailedCount)
	for _, w := range snap.Warnings {
		fmt.Println("warning:", w)
	}
	return nil
}

// watchJobSnapshot renders a live cheggaaa/pb/v3 progress bar over
// transferred/total bytes (SPEC_FULL.md §4.3) whenever --watch is given;
// it does not check whether stdout is a terminal. It polls status until
// the job reaches a terminal state.
func watchJobSnapshot() error {
	first, err := coord.Status()
	if err != nil {
		return err
	}
	bar := pb.Full.Start64(first.TotalBytes)
	bar.Set(pb.Bytes, true)
	defer bar.Finish()

	for {
		snap, err := coord.Status()
		if err != nil {
			return err
		}
		bar.SetCurrent(snap.TransferredBytes)
		if snap.Status.IsTerminal() {
			return printJobSnapshot(snap)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func init() {
	parallelStartCmd.Flags().IntVar(&startWorkers, "workers", 0, "worker count; 0 means auto-size from registered credentials")
	parallelStartCmd.Flags().BoolVar(&startDryRun, "dry-run", false, "classify and account for every file without transferring or ghost-linking")
	parallelStartCmd.Flags().BoolVar(&startLargestFirst, "largest-first", true, "dispatch the largest files first")
	parallelStartCmd.Flags().BoolVar(&startArchiveMode, "archive-mode", false, "route oversized container-video formats to cold storage too")
	parallelStartCmd.Flags().StringVar(&startGhostLinkOnFailure, "ghost-link-on-failure", "transfer", "transfer or skip a file whose ghost-link could not be created")
	parallelStartCmd.Flags().BoolVar(&startRequeueOnWorkerDeath, "requeue-on-worker-death", false, "requeue a worker's in-flight item if it dies unexpectedly")

	parallelStatusCmd.Flags().BoolVar(&statusWatch, "watch", false, "render a live progress bar until the job finishes")

	parallelCmd.AddCommand(parallelStartCmd, parallelStatusCmd, parallelPauseCmd, parallelResumeCmd, parallelAbortCmd)
}
