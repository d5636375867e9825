package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ducminh1220/netscope/internal/config"
	"github.com/ducminh1220/netscope/internal/export"
	"github.com/ducminh1220/netscope/internal/history"
	"github.com/ducminh1220/netscope/internal/probe"
)

// buildRunner maps the loaded configuration onto engine settings.
func buildRunner(cfg *config.Config) *probe.Runner {
	return &probe.Runner{
		Concurrency:    cfg.Engine.Concurrency,
		RateLimit:      cfg.Engine.RateLimit,
		ProbeTimeout:   cfg.ProbeTimeoutDuration(),
		OverallTimeout: cfg.OverallTimeoutDuration(),
		Logger:         logger,
		Config: probe.Config{
			Timeout:       cfg.ProbeTimeoutDuration(),
			Nameservers:   cfg.Probes.Nameservers,
			PingCount:     cfg.Probes.PingCount,
			LossCount:     cfg.Probes.LossCount,
			Ports:         cfg.Probes.Ports,
			PortTimeout:   cfg.PortTimeoutDuration(),
			PortWorkers:   cfg.Probes.PortWorkers,
			MaxHops:       cfg.Probes.MaxHops,
			MaxSilentHops: cfg.Probes.MaxSilentHops,
			LanSubnet:     cfg.Probes.LanSubnet,
			DownloadURL:   cfg.Probes.DownloadURL,
			UploadURL:     cfg.Probes.UploadURL,
		},
	}
}

// runDiagnostics executes the requested probes, renders the report,
// archives it and optionally writes an export file. Ctrl-C cancels the
// run; whatever completed is still reported.
func runDiagnostics(target string, kinds []probe.Kind, exportFormat string, skipHistory bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := buildRunner(cfg)
	runner.OnResult = func(res probe.Result) {
		fmt.Printf("  [%s] %s\n", formatStatusWithColor(string(res.Status)), res.Name)
	}

	fmt.Printf("Running %d probes against %s ...\n", len(kinds), colorInfo(target))
	report, err := runner.Run(ctx, target, kinds)
	if err != nil {
		return err
	}

	fmt.Println()
	renderReport(os.Stdout, report)

	if !skipHistory {
		if err := archiveReport(report, kinds); err != nil {
			logger.Warnw("history write failed", "error", err)
			fmt.Fprintln(os.Stderr, colorWarn("Warning:"), "could not archive run:", err)
		}
	}

	if exportFormat != "" {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		path, err := export.WriteFile(report, format, cfg.Export.Dir, cfg.Export.Prefix)
		if err != nil {
			return err
		}
		fmt.Printf("\nReport written to %s\n", colorInfo(path))
	}
	return nil
}

func archiveReport(report *probe.Report, kinds []probe.Kind) error {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	return store.Append(&history.Record{
		Target:      report.Target,
		Status:      string(report.OverallStatus),
		Probes:      names,
		StartedAt:   report.StartedAt,
		CompletedAt: report.CompletedAt,
		ElapsedMS:   report.ElapsedMS,
		Report:      raw,
	})
}
