// SPDX-License-Identifier: MIT

// Package cmd implements the beewatch command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"beewatch/internal/analysis"
	"beewatch/internal/audio/device"
	"beewatch/internal/command"
	"beewatch/internal/config"
	applog "beewatch/internal/log"
	"beewatch/internal/store"
	"beewatch/internal/tui"
	"beewatch/pkg/build"

	"github.com/spf13/cobra"
)

// Options are the flags shared by every subcommand.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand builds the command tree. ctx is cancelled on shutdown.
func NewRootCommand(ctx context.Context) *cobra.Command {
	buildInfo := build.GetBuildFlags()
	options := &Options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := options.load()
			if err != nil {
				return err
			}
			return runNode(ctx, cfg)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&options.ConfigPath, "config", "c", "",
		"Path to the YAML config file (default ./config.yaml when present)")
	rootCmd.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.AddCommand(
		newDevicesCommand(),
		newReplayCommand(ctx, options),
		newConfigCommand(options),
	)
	return rootCmd
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand(ctx)
	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

// load reads the config and configures logging from it.
func (o *Options) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if o.Verbose || cfg.Debug {
		level = applog.LevelDebug.String()
	}
	applog.Configure(applog.Options{Level: level, File: cfg.LogFile})
	return cfg, nil
}

func newDevicesCommand() *cobra.Command {
	var pick bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !pick {
				return device.ListDevices(cmd.OutOrStdout())
			}
			d, ok, err := tui.PickDevice()
			if err != nil || !ok {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Add to config.yaml:\n\n%s", tui.ConfigSnippet(d))
			return nil
		},
	}
	cmd.Flags().BoolVar(&pick, "tui", false, "Pick the microphone interactively")
	return cmd
}

func newReplayCommand(ctx context.Context, options *Options) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "replay <file.wav>",
		Short: "Run one pipeline pass over a WAV file with the mock climate values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := options.load()
			if err != nil {
				return err
			}
			var m analysis.Model
			switch model {
			case command.ModelSummer:
				m = analysis.ModelSummer
			case command.ModelWinter:
				m = analysis.ModelWinter
			default:
				return fmt.Errorf("unknown model %q, want %s or %s", model, command.ModelSummer, command.ModelWinter)
			}
			return replay(ctx, cmd.OutOrStdout(), cfg, args[0], m)
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", command.ModelSummer, "Feature layout: summer or winter")
	return cmd
}

func newConfigCommand(options *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change the persisted node settings",
	}

	flash := func() (*store.FlashFile, error) {
		cfg, err := options.load()
		if err != nil {
			return nil, err
		}
		return store.NewFlashFile(cfg.Storage.Path), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flash()
			if err != nil {
				return err
			}
			sys, err := f.Read()
			valid := err == nil
			if !valid {
				sys = store.Defaults()
			}
			printSystemConfig(cmd.OutOrStdout(), f.Path(), sys, valid)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-server <ip>[:port]",
		Short: "Persist the server address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ip, port, err := command.Server(args[0])
			if err != nil {
				return errors.New(command.UsageServer)
			}
			f, err := flash()
			if err != nil {
				return err
			}
			sys := f.Load()
			sys.ServerIP = ip
			if port != 0 {
				sys.ServerPort = port
			}
			if err := f.Save(sys); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server set to %s\n", sys.ServerAddr())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-wifi <ssid> <password>",
		Short: "Persist the WiFi credentials",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flash()
			if err != nil {
				return err
			}
			sys := f.Load()
			sys.WifiSSID = args[0]
			sys.WifiPass = strings.Join(args[1:], " ")
			if err := f.Save(sys); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "WiFi credentials saved (SSID: %s)\n", sys.WifiSSID)
			return nil
		},
	})

	return cmd
}

func printSystemConfig(w io.Writer, path string, sys store.SystemConfig, valid bool) {
	state := "valid"
	if !valid {
		state = "missing or invalid, showing defaults"
	}
	pass := ""
	if sys.WifiPass != "" {
		pass = "********"
	}
	fmt.Fprintf(w, "Flash image: %s (%s)\n", path, state)
	fmt.Fprintf(w, "  Node ID:   %s\n", sys.NodeID)
	fmt.Fprintf(w, "  Server:    %s\n", sys.ServerAddr())
	fmt.Fprintf(w, "  WiFi SSID: %s\n", sys.WifiSSID)
	fmt.Fprintf(w, "  WiFi pass: %s\n", pass)
}
