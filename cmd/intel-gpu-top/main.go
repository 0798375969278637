//go:build linux

// Command intel-gpu-top samples Intel GPU performance counters and
// renders them as an interactive dashboard, a plain-text column
// stream, newline-delimited JSON, or a one-shot Prometheus exposition.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/igt-go/intel-gpu-top/app"
)

type cliOpts struct {
	periodMS    int
	outputPath  string
	jsonMode    bool
	textMode    bool
	prometheus  bool
	listDevices bool
	deviceExpr  string
}

func main() {
	var o cliOpts

	root := &cobra.Command{
		Use:           "intel-gpu-top",
		Short:         "Sample and display Intel GPU performance counters",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o)
		},
	}

	root.Flags().IntVarP(&o.periodMS, "period", "s", 1000, "sample period in milliseconds")
	root.Flags().StringVarP(&o.outputPath, "output", "o", "-", "output file, or - for stdout")
	root.Flags().BoolVarP(&o.jsonMode, "json", "J", false, "JSON output mode")
	root.Flags().BoolVarP(&o.textMode, "text", "l", false, "plain-text column output mode")
	root.Flags().BoolVarP(&o.prometheus, "prometheus", "p", false, "Prometheus exposition mode (single-shot)")
	root.Flags().BoolVarP(&o.listDevices, "list-devices", "L", false, "list discovered devices and exit")
	root.Flags().StringVarP(&o.deviceExpr, "device", "d", "", "device filter expression")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, o cliOpts) error {
	out, closeOut, isTTY, err := openOutput(o.outputPath)
	if err != nil {
		return err
	}
	if closeOut != nil {
		defer closeOut()
	}

	log := newLogger(term.IsTerminal(int(os.Stderr.Fd())))

	mode := app.ModeInteractive
	switch {
	case o.prometheus:
		mode = app.ModePrometheus
	case o.jsonMode:
		mode = app.ModeJSON
	case o.textMode:
		mode = app.ModeText
	}

	opts := app.Options{
		Period:       time.Duration(o.periodMS) * time.Millisecond,
		Output:       out,
		OutputIsTTY:  isTTY,
		StdinFd:      int(os.Stdin.Fd()),
		Mode:         mode,
		ListDevices:  o.listDevices,
		DeviceFilter: o.deviceExpr,
	}

	return app.Run(ctx, log, opts)
}

func openOutput(path string) (out *os.File, closeFn func() error, isTTY bool, err error) {
	if path == "" || path == "-" {
		return os.Stdout, nil, term.IsTerminal(int(os.Stdout.Fd())), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, false, fmt.Errorf("opening output %q: %w", path, err)
	}
	return f, f.Close, false, nil
}

func newLogger(isTTY bool) zerolog.Logger {
	if isTTY {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
