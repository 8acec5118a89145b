package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tablefind/process"
	"tablefind/process_snapshot"
)

func newCaptureCmd() *cobra.Command {
	var (
		pid      int
		procName string
	)

	cmd := &cobra.Command{
		Use:   "capture <directory>",
		Short: "Capture a snapshot dump of a process for offline scans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid == 0 && procName == "" {
				return fmt.Errorf("provide --pid or --process")
			}
			if pid == 0 {
				resolved, err := process.ResolvePID(procName)
				if err != nil {
					return err
				}
				pid = int(resolved)
			}

			mem, err := openLive(process.ProcessID(pid))
			if err != nil {
				return err
			}
			return process_snapshot.Capture(mem, args[0])
		},
	}

	cmd.Flags().IntVar(&pid, "pid", 0, "process ID")
	cmd.Flags().StringVar(&procName, "process", "", "process name to resolve")

	return cmd
}
