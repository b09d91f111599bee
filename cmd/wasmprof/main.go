// Command wasmprof is a thin CLI entry point: load a WebAssembly module,
// instantiate it with no imports, invoke an exported entrypoint under a
// Session, and write a collapsed-stack export. The entrypoint is called
// exactly once per run; the call is not repeated. It exists to
// exercise the library, not as a feature surface in its own right.
package main

import (
	"context"
	"fmt"
	"os"

	gowasmtime "github.com/bytecodealliance/wasmtime-go"
	"github.com/spf13/cobra"

	"github.com/wasmprof/wasmprof/internal/errutil"
	"github.com/wasmprof/wasmprof/internal/logging"
	wasmtimeadapter "github.com/wasmprof/wasmprof/internal/vmadapter/wasmtime"
	"github.com/wasmprof/wasmprof/internal/vmapi"
	"github.com/wasmprof/wasmprof/pkg/version"
	"github.com/wasmprof/wasmprof/pkg/wasmprof"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "wasmprof: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		entrypoint string
		frequency  uint32
		fuel       uint64
		output     string
	)

	cmd := &cobra.Command{
		Use:           "wasmprof FILE.wasm",
		Short:         "Sample-profile a WebAssembly guest module",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(args[0], entrypoint, frequency, fuel, output)
		},
	}

	cmd.Flags().StringVar(&entrypoint, "entrypoint", "fib", "exported function to invoke (called once)")
	cmd.Flags().Uint32Var(&frequency, "frequency", 1000, "sampling frequency in Hz")
	cmd.Flags().Uint64Var(&fuel, "fuel", 0, "VM fuel budget; if nonzero, samples are weighed by fuel instead of wall time")
	cmd.Flags().StringVar(&output, "output", "wasmprof.data", "collapsed-stack output path")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("wasmprof version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

func runProfile(path, entrypoint string, frequency uint32, fuel uint64, output string) error {
	logger := logging.NewWithComponent(logging.Config{Level: "info"}, "wasmprof-cli")

	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	fuelConfigured := fuel > 0
	weightUnit := wasmprof.Nanoseconds
	if fuelConfigured {
		weightUnit = wasmprof.Fuel
	}

	engine := wasmtimeadapter.NewEngine(fuelConfigured)
	module, err := gowasmtime.NewModule(engine.Inner(), wasmBytes)
	if err != nil {
		return fmt.Errorf("compile module: %w", err)
	}

	storeOpts := []wasmprof.Option{
		wasmprof.WithFrequency(frequency),
		wasmprof.WithBinaryPath(path),
		wasmprof.WithLogger(logger),
		wasmprof.WithWeightUnit(weightUnit),
	}

	innerStore := gowasmtime.NewStore(engine.Inner())
	if fuelConfigured {
		if err := innerStore.AddFuel(fuel); err != nil {
			return fmt.Errorf("configure fuel: %w", err)
		}
	}

	store := wasmtimeadapter.NewStore(engine, innerStore, fuelConfigured)
	session := wasmprof.NewSession(store, storeOpts...)

	_, profileData, err := session.Profile(context.Background(), func(s vmapi.EpochStore) (any, error) {
		instance, err := gowasmtime.NewInstance(innerStore, module, nil)
		if err != nil {
			return nil, fmt.Errorf("instantiate module: %w", err)
		}
		var fn *gowasmtime.Func
		if ext := instance.GetExport(innerStore, entrypoint); ext != nil {
			fn = ext.Func()
		}
		if fn == nil {
			return nil, fmt.Errorf("module has no exported function %q", entrypoint)
		}
		_, err = fn.Call(innerStore)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer errutil.DeferClose(logger, out, "failed to close collapsed-stack output")

	if _, err := profileData.IntoCollapsedStacks().WriteTo(out); err != nil {
		return fmt.Errorf("write collapsed stacks: %w", err)
	}

	return nil
}
