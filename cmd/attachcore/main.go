/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// attachcore is a one-shot CLI around the attachment core: attach,
// issue a single load-agent command, detach, exit. The VM family
// (HotSpot or OpenJ9) is not auto-detected, mirroring the library's
// facade, which only dispatches to whichever attacher the caller
// chose.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jvmattach/attachcore"
	"github.com/jvmattach/attachcore/internal/attachlog"
	"github.com/jvmattach/attachcore/internal/deleteonexit"
)

var version = "dev"

var vmFamily string

func main() {
	defer deleteonexit.Drain()

	root := &cobra.Command{
		Use:     "attachcore",
		Short:   "attach to a running JVM and load an instrumentation agent",
		Version: version,
	}
	root.PersistentFlags().StringVar(&vmFamily, "vm", "hotspot", `target VM family: "hotspot" or "openj9"`)

	root.AddCommand(loadAgentCmd(), loadAgentPathCmd(), detachCmd())

	if err := root.Execute(); err != nil {
		attachlog.Log.Error().Err(err).Msg("attachcore failed")
		// os.Exit skips deferred calls, so drain here as well.
		deleteonexit.Drain()
		os.Exit(1)
	}
}

func loadAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-agent <pid> <jar> [arg]",
		Short: "load a bytecode-instrumentation agent bundle",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := attachcore.ParseAttachTarget(args[0])
			if err != nil {
				return err
			}
			arg := ""
			if len(args) == 3 {
				arg = args[2]
			}
			return runLoad(target.Int(), func(vm *attachcore.VirtualMachine) error {
				return vm.LoadAgent(args[1], arg)
			})
		},
	}
}

func loadAgentPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-agent-path <pid> <library> [arg]",
		Short: "load a native agent library",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := attachcore.ParseAttachTarget(args[0])
			if err != nil {
				return err
			}
			arg := ""
			if len(args) == 3 {
				arg = args[2]
			}
			return runLoad(target.Int(), func(vm *attachcore.VirtualMachine) error {
				return vm.LoadAgentPath(args[1], arg)
			})
		},
	}
}

func detachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detach <pid>",
		Short: "attach and immediately detach, verifying the target accepts attachers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := attachcore.ParseAttachTarget(args[0])
			if err != nil {
				return err
			}
			vm, err := attach(target.Int())
			if err != nil {
				return err
			}
			if err := vm.Detach(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "detached from %s\n", target)
			return nil
		},
	}
}

func runLoad(pid int, op func(*attachcore.VirtualMachine) error) error {
	vm, err := attach(pid)
	if err != nil {
		return err
	}
	defer vm.Detach()

	return op(vm)
}

func attach(pid int) (*attachcore.VirtualMachine, error) {
	switch vmFamily {
	case "hotspot":
		return attachcore.AttachHotSpot(pid, attachcore.ConfiguredRetryPolicy())
	case "openj9":
		return attachcore.AttachOpenJ9(pid)
	default:
		return nil, fmt.Errorf("unknown --vm %q, expected \"hotspot\" or \"openj9\"", vmFamily)
	}
}
