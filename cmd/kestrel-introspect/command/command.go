// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Kestrel Security (https://www.kestrelsec.io/).
// Copyright 2022-present Kestrel Security, Inc.

//go:build linux
// +build linux

// Package command implements the kestrel-introspect command, a diagnostic
// tool that exercises the agent's kernel-introspection layers on the local
// host: struct offsets, symbol resolution and path fingerprints.
package command

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kestrelsec/kestrel-agent/pkg/security/fingerprint"
	"github.com/kestrelsec/kestrel-agent/pkg/security/ksyms"
	"github.com/kestrelsec/kestrel-agent/pkg/security/probe/constantfetch"
	"github.com/kestrelsec/kestrel-agent/pkg/security/resolvers/mount"
	"github.com/kestrelsec/kestrel-agent/pkg/util/kernel"
	"github.com/kestrelsec/kestrel-agent/pkg/util/log"
)

type params struct {
	logLevel      string
	kernelVersion string
	kallsymsPath  string
	tracefsRoot   string
}

// MakeCommand returns the root kestrel-introspect command.
func MakeCommand() *cobra.Command {
	p := &params{}

	cmd := &cobra.Command{
		Use:          "kestrel-introspect",
		Short:        "inspect kernel ABI details the agent relies on",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.SetupDefaultLogger(p.logLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Flush()
		},
	}

	viper.SetEnvPrefix("KESTREL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	flags := cmd.PersistentFlags()
	flags.StringVar(&p.logLevel, "log-level", "info", "log level")
	flags.StringVar(&p.kernelVersion, "kernel-version", viper.GetString("kernel_version"),
		"override the detected kernel version (e.g. 5.15.0)")
	flags.StringVar(&p.kallsymsPath, "kallsyms", defaultString(viper.GetString("kallsyms"), ksyms.DefaultKallsymsPath),
		"kallsyms listing path")
	flags.StringVar(&p.tracefsRoot, "tracefs-root", defaultString(viper.GetString("tracefs_root"), ksyms.DefaultTracefsRoot),
		"tracefs mount point")

	cmd.AddCommand(offsetsCommand(p))
	cmd.AddCommand(ksymCommand(p))
	cmd.AddCommand(fingerprintCommand())
	return cmd
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func (p *params) host() (*kernel.Host, error) {
	if p.kernelVersion == "" {
		return kernel.NewHost()
	}

	code := kernel.ParseVersion(p.kernelVersion)
	if code == 0 {
		return nil, fmt.Errorf("unparsable kernel version %q", p.kernelVersion)
	}
	osRelease, err := kernel.ReadOSRelease("/etc/os-release")
	if err != nil {
		return nil, err
	}
	return &kernel.Host{Code: code, OsRelease: osRelease}, nil
}

func offsetsCommand(p *params) *cobra.Command {
	return &cobra.Command{
		Use:   "offsets",
		Short: "print the struct offsets selected for this kernel",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := p.host()
			if err != nil {
				return err
			}
			log.Debugf("resolving offsets for kernel %s", host.Code)

			fetcher := constantfetch.NewFallbackConstantFetcher(host)
			for _, id := range []string{
				constantfetch.OffsetNameSuperBlockStructSUUID,
				constantfetch.OffsetNameSuperBlockStructSDev,
				constantfetch.OffsetNameDentryStructDParent,
				constantfetch.OffsetNameDentryStructDName,
			} {
				fetcher.AppendOffsetofRequest(id)
			}
			res, err := fetcher.FinishAndGetResults()
			if err != nil {
				return err
			}

			fmt.Printf("kernel: %s\n", host.Code)
			for id, value := range res {
				if value == constantfetch.ErrorSentinel {
					fmt.Printf("%-24s n/a\n", id)
				} else {
					fmt.Printf("%-24s %d\n", id, value)
				}
			}

			locator, err := mount.NewLocator(host, constantfetch.NewFallbackConstantFetcher(host))
			if err != nil {
				return err
			}
			fmt.Printf("volume identifier: offset=%d size=%d\n", locator.Offset(), locator.Size())
			return nil
		},
	}
}

func ksymCommand(p *params) *cobra.Command {
	return &cobra.Command{
		Use:   "ksym <symbol>",
		Short: "resolve the runtime address of a kernel symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if k, err := ksyms.LoadKallsyms(p.kallsymsPath); err == nil {
				resolver := ksyms.NewResolver(ksyms.Options{Lookup: k.LookupName})
				if addr, ok := resolver.Resolve(name); ok {
					fmt.Printf("%s 0x%x (direct)\n", name, addr)
					return nil
				}
				log.Debugf("%s not in %s, falling back to trap discovery", name, p.kallsymsPath)
			} else {
				log.Debugf("kallsyms unusable: %v", err)
			}

			tracer := &ksyms.TracefsKprobe{Root: p.tracefsRoot}
			addr, err := ksyms.DiscoverAddress(tracer, name)
			if err != nil {
				return fmt.Errorf("symbol %s not found: %v", name, err)
			}
			if addr == 0 {
				return fmt.Errorf("symbol %s: address masked by kptr_restrict", name)
			}
			fmt.Printf("%s 0x%x (trap)\n", name, addr)
			return nil
		},
	}
}

func fingerprintCommand() *cobra.Command {
	var volumeUUID string

	cmd := &cobra.Command{
		Use:   "fingerprint <path>",
		Short: "compute the fingerprint the agent would attach to a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathKey := fingerprint.Sum64String(args[0])
			fmt.Printf("path key: 0x%016x\n", pathKey)

			if volumeUUID != "" {
				uuid, err := hex.DecodeString(strings.ReplaceAll(volumeUUID, "-", ""))
				if err != nil {
					return fmt.Errorf("invalid volume uuid: %v", err)
				}
				gen := fingerprint.NewKeyGenerator()
				fmt.Printf("file key: 0x%016x\n", gen.FileKey(uuid, pathKey))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&volumeUUID, "volume-uuid", "", "hex volume identifier to combine into a file key")
	return cmd
}
