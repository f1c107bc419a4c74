// bridgectl exercises the capability bridge from the command line: it
// builds one Registry from configuration and dispatches a single
// capability call per invocation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/devicebridge-dev/devicebridge"
	"github.com/devicebridge-dev/devicebridge/adapter/native"
	"github.com/devicebridge-dev/devicebridge/adapter/web"
	"github.com/devicebridge-dev/devicebridge/bridge"
	"github.com/devicebridge-dev/devicebridge/capability"
	"github.com/devicebridge-dev/devicebridge/config"
	"github.com/devicebridge-dev/devicebridge/environ"
	"github.com/devicebridge-dev/devicebridge/permission"
	"github.com/devicebridge-dev/devicebridge/registry"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "bridgectl",
		Short:         "Dispatch capability calls through the device bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration")

	rootCmd.AddCommand(newTakePhotoCmd(), newLocateCmd(), newDeviceInfoCmd(), newGrantCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildRegistry composes the bridge explicitly: config, detector,
// permission machine, transport, adapters. No hidden singletons.
func buildRegistry(ctx context.Context) (*registry.Registry, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var probe environ.Probe
	var transport bridge.Transport
	cleanup := func() {}

	if cfg.Bridge.URL != "" {
		probe = bridge.DialProbe(cfg.Bridge.URL, 2*time.Second)
	}
	detector := environ.NewDetector(environ.WithProbe(probe), environ.WithLogger(log))

	if detector.Detect() == environ.Native {
		transport, err = bridge.Dial(ctx, cfg.Bridge.URL,
			bridge.WithCallTimeout(cfg.Bridge.CallTimeout()),
			bridge.WithLogger(log),
			bridge.WithMiddleware(
				devicebridge.RecoveryMiddleware(),
				devicebridge.LoggingMiddleware(log),
			),
		)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = transport.Close() }
	}

	perms := permission.NewMachine(
		permission.WithRequester(permission.NewTerminalPrompter()),
		permission.WithLogger(log),
	)

	reg, err := registry.New(
		registry.WithConfig(cfg),
		registry.WithDetector(detector),
		registry.WithPermissionMachine(perms),
		registry.WithLogger(log),
		registry.WithNativeAdapters(
			native.NewCamera(transport),
			native.NewLocator(transport),
			native.NewDeviceInfo(transport),
		),
		registry.WithWebAdapters(
			nil, // no host-side media devices; camera is native-only here
			nil, // no host-side position source
			web.NewDeviceInfo(web.HostNavigator{}),
		),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return reg, cleanup, nil
}

func newTakePhotoCmd() *cobra.Command {
	var quality int
	var allowEditing bool
	var source string

	cmd := &cobra.Command{
		Use:   "take-photo",
		Short: "Capture a single photo",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, cleanup, err := buildRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := reg.TakePhoto(cmd.Context(), capability.CaptureRequest{
				Quality:      quality,
				AllowEditing: allowEditing,
				Source:       capability.CaptureSource(source),
			})
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().IntVar(&quality, "quality", 0, "encoder quality 0-100 (0 = configured default)")
	cmd.Flags().BoolVar(&allowEditing, "allow-editing", false, "allow editing before returning")
	cmd.Flags().StringVar(&source, "source", "", "capture source: camera or library")
	return cmd
}

func newLocateCmd() *cobra.Command {
	var accuracy string
	var timeoutMS int

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Read the current position once",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, cleanup, err := buildRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := reg.GetCurrentPosition(cmd.Context(), capability.LocationRequest{
				DesiredAccuracy: capability.AccuracyLevel(accuracy),
				Timeout:         time.Duration(timeoutMS) * time.Millisecond,
			})
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&accuracy, "accuracy", "", "desired accuracy: coarse or fine")
	cmd.Flags().IntVar(&timeoutMS, "timeout-ms", 0, "query timeout in milliseconds (0 = configured default)")
	return cmd
}

func newDeviceInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "device-info",
		Short: "Read device metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, cleanup, err := buildRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := reg.GetDeviceInfo(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

func newGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <capability>",
		Short: "Request permission for a capability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := devicebridge.ParseCapabilityID(args[0])
			if err != nil {
				return err
			}
			reg, cleanup, err := buildRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			state, err := reg.RequestPermission(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", id, state)
			return nil
		},
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
