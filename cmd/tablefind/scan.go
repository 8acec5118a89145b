package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tablefind/offsets"
	"tablefind/process"
	"tablefind/process_snapshot"
	"tablefind/scan"
)

func newScanCmd() *cobra.Command {
	var (
		configPath  string
		pid         int
		procName    string
		snapshotDir string
		workers     int
		timeout     time.Duration
		outPath     string
		offsetsPath string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a process or snapshot for the record table bases",
		Long: `Run a full discovery session against a live process or a snapshot
dump and print the scan report as JSON.

The process is chosen from --pid, --process, or the config's
process_name, in that order. The session never writes to the target
process and always produces a complete report; tables that could not
be located are reported INCONCLUSIVE or FALLBACK_HINT rather than
failing the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := scan.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers = workers
			}

			mem, err := openTarget(cfg, pid, procName, snapshotDir)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			report := scan.NewSession(cfg, mem).Run(ctx)

			data, err := report.MarshalIndent()
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, data, 0644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			} else {
				cmd.Println(string(data))
			}

			if offsetsPath != "" {
				overrides := offsets.FromReport(report)
				if len(overrides) == 0 {
					cmd.PrintErrln("No confirmed bases; overrides file not written")
				} else if err := offsets.WriteFile(offsetsPath, overrides); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tablefind.json", "scan config document")
	cmd.Flags().IntVar(&pid, "pid", 0, "process ID to attach to")
	cmd.Flags().StringVar(&procName, "process", "", "process name to resolve (overrides config)")
	cmd.Flags().StringVar(&snapshotDir, "snapshot", "", "scan a snapshot dump directory instead of a live process")
	cmd.Flags().IntVar(&workers, "workers", 0, "scan worker count (default: number of CPUs)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "session timeout; unscanned regions are abandoned")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringVar(&offsetsPath, "offsets-out", "", "write an offsets override document for the editor")

	return cmd
}

// openTarget resolves the memory view for a scan: a snapshot dump, an
// explicit PID, or a name resolved to a PID.
func openTarget(cfg *scan.Config, pid int, procName, snapshotDir string) (process.Memory, error) {
	if snapshotDir != "" {
		return process_snapshot.Load(snapshotDir)
	}

	if pid == 0 && cfg.PID != 0 {
		pid = cfg.PID
	}
	if pid == 0 {
		name := procName
		if name == "" {
			name = cfg.ProcessName
		}
		if name == "" {
			return nil, fmt.Errorf("no target: provide --pid, --process, --snapshot, or process_name in the config")
		}
		resolved, err := process.ResolvePID(name)
		if err != nil {
			return nil, err
		}
		pid = int(resolved)
	}

	return openLive(process.ProcessID(pid))
}
