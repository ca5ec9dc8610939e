package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"httpobs/internal/config"
	"httpobs/internal/output"
	"httpobs/internal/retriever"
	"httpobs/internal/scanner"
	"httpobs/internal/site"
	"httpobs/internal/tech"
)

// Exit codes: 0 for any completed scan regardless of grade, 1 for invalid
// input, 2 for a scan that could not complete.
const (
	exitOK      = 0
	exitInvalid = 1
	exitFailed  = 2
)

// cliReport is the single JSON object printed to stdout.
type cliReport struct {
	Scan  *output.ScanReport           `json:"scan"`
	Tests map[string]output.TestResult `json:"tests"`
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInvalid
	}

	if flag.NArg() != 1 {
		flag.Usage()
		return exitInvalid
	}

	target, err := site.Parse(flag.Arg(0))
	if err != nil {
		cfg.Logger.Error("invalid scan target", "input", flag.Arg(0), "error", err)
		return exitInvalid
	}

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cfg.Logger.Info("shutting down gracefully...")
		cancel()
	}()

	var detector *tech.Detector
	if cfg.TechDetect {
		detector, err = tech.NewDetector()
		if err != nil {
			cfg.Logger.Error("technology detection unavailable", "error", err)
			return exitFailed
		}
	}

	r := retriever.New(cfg.RetrieverOptions(), cfg.Logger)
	defer r.Close()

	resolver := &site.Resolver{AllowPrivateTargets: cfg.AllowPrivateTargets}
	s := scanner.New(r, resolver, nil, detector, cfg.Logger)

	report := s.Scan(ctx, target)

	var out io.Writer = os.Stdout
	pretty := cfg.Pretty || term.IsTerminal(int(os.Stdout.Fd()))
	if cfg.OutputFile != "" {
		file, err := os.Create(cfg.OutputFile)
		if err != nil {
			cfg.Logger.Error("failed to create output file", "file", cfg.OutputFile, "error", err)
			return exitFailed
		}
		defer file.Close()
		out = file
		pretty = cfg.Pretty
	}

	if err := writeReport(out, report, pretty); err != nil {
		cfg.Logger.Error("writing report failed", "error", err)
		return exitFailed
	}

	if report.Error != "" {
		cfg.Logger.Error("scan failed", "site", target.Key(), "error", report.Error)
	}
	return exitCode(report)
}

// exitCode maps a finished report to the process exit code. Validation
// failures, including a host that does not resolve, are invalid input
// rather than a failed scan.
func exitCode(report *output.ScanReport) int {
	switch report.Error {
	case "":
		return exitOK
	case "invalid-hostname", "invalid-port", "invalid-hostname-lookup":
		return exitInvalid
	}
	return exitFailed
}

func writeReport(w io.Writer, report *output.ScanReport, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(cliReport{Scan: report, Tests: report.Tests})
}
