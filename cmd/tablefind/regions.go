package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tablefind/process"
	"tablefind/process_snapshot"
)

func newRegionsCmd() *cobra.Command {
	var (
		pid         int
		procName    string
		snapshotDir string
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List the memory regions a scan would consider",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mem process.Memory
			var err error
			switch {
			case snapshotDir != "":
				mem, err = process_snapshot.Load(snapshotDir)
			case pid != 0:
				mem, err = openLive(process.ProcessID(pid))
			case procName != "":
				var resolved process.ProcessID
				resolved, err = process.ResolvePID(procName)
				if err == nil {
					mem, err = openLive(resolved)
				}
			default:
				return fmt.Errorf("provide --pid, --process, or --snapshot")
			}
			if err != nil {
				return err
			}

			regions, err := mem.Regions()
			if err != nil {
				return err
			}

			eligible := 0
			for _, r := range regions {
				if r.Eligible() {
					eligible++
				} else if !all {
					continue
				}
				marker := " "
				if r.Eligible() {
					marker = "*"
				}
				cmd.Printf("%s %s - %s  %d bytes  committed=%t readable=%t guarded=%t\n",
					marker, r.Base.ToString(), r.End().ToString(), uint(r.Size),
					r.Committed, r.Readable, r.Guarded)
			}
			cmd.Printf("%d regions, %d eligible\n", len(regions), eligible)
			return nil
		},
	}

	cmd.Flags().IntVar(&pid, "pid", 0, "process ID")
	cmd.Flags().StringVar(&procName, "process", "", "process name to resolve")
	cmd.Flags().StringVar(&snapshotDir, "snapshot", "", "snapshot dump directory")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include ineligible regions")

	return cmd
}
