// Command dnsflowmeter reads a packet capture (offline file or live
// interface), aggregates packets into bidirectional flows, extracts
// DNS features from port-53 traffic, and writes one feature row per
// flow to the configured sinks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gopacket/pcap"

	"github.com/jroosing/dnsflowmeter/internal/config"
	"github.com/jroosing/dnsflowmeter/internal/decoder"
	"github.com/jroosing/dnsflowmeter/internal/flowmanager"
	"github.com/jroosing/dnsflowmeter/internal/logging"
	"github.com/jroosing/dnsflowmeter/internal/memwatch"
	"github.com/jroosing/dnsflowmeter/internal/runstats"
	"github.com/jroosing/dnsflowmeter/internal/sink"
	"github.com/jroosing/dnsflowmeter/internal/statusapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds the parsed command-line flag values (spec section 6).
type cliFlags struct {
	offlineFile string
	iface       string
	output      string
	listIfaces  bool
	attack      bool
	benign      bool
	sheetsCreds string
	sheetsID    string
	configPath  string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.offlineFile, "f", "", "offline pcap file to read")
	flag.StringVar(&f.iface, "i", "", "live interface to capture from")
	flag.StringVar(&f.output, "o", "", "output CSV path (default flow_output.csv)")
	flag.BoolVar(&f.listIfaces, "l", false, "list capture interfaces and exit")
	flag.BoolVar(&f.attack, "a", false, "label every row ATTACK")
	flag.BoolVar(&f.benign, "b", false, "label every row BENIGN")
	flag.StringVar(&f.sheetsCreds, "g", "", "Google service-account credentials path for the remote sink")
	flag.StringVar(&f.sheetsID, "s", "", "Google Sheets spreadsheet ID for the remote sink")
	flag.StringVar(&f.configPath, "config", "", "optional YAML config file")
	flag.Parse()
	return f
}

func run() error {
	flags := parseFlags()

	if flags.listIfaces {
		return listInterfaces()
	}
	if flags.attack && flags.benign {
		return errors.New("flags -a and -b are mutually exclusive")
	}
	if flags.offlineFile == "" && flags.iface == "" {
		return errors.New("one of -f (offline file) or -i (live interface) is required")
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
		RunID:            cfg.Logging.RunID,
	})

	label := ""
	switch {
	case flags.attack:
		label = "ATTACK"
	case flags.benign:
		label = "BENIGN"
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = cfg.Sink.OutputPath
	}

	sinks, err := buildSinks(outputPath, flags.sheetsCreds, flags.sheetsID, cfg.Sink.SheetsBatchSize, logger)
	if err != nil {
		return fmt.Errorf("build sinks: %w", err)
	}

	runStats := runstats.New()
	manager := flowmanager.New(sinks, label, runStats, logger)
	manager.SetLimits(cfg.Flow.IdleTimeoutMs, cfg.Flow.SweepPacketInterval, cfg.Flow.SweepTimeMs,
		cfg.DNS.PendingMaxEntries, cfg.DNS.PendingMaxAgeMs)
	if err := manager.WriteHeaders(); err != nil {
		return fmt.Errorf("write sink headers: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var statusSrv *statusapi.Server
	if flags.iface != "" && cfg.StatusAPI.Enabled {
		statusSrv = statusapi.New(cfg.StatusAPI.BindAddr, runStats, manager, logger)
		go func() {
			if err := statusSrv.ListenAndServe(); err != nil {
				logger.Warn("status api stopped", "err", err)
			}
		}()
		go memwatch.New(30*time.Second, cfg.StatusAPI.MemThresholdPct, logger).Run(ctx)
	}

	source, err := openSource(flags)
	if err != nil {
		return fmt.Errorf("open capture source: %w", err)
	}
	defer source.Close()

	start := time.Now()
	captureLoop(ctx, source, manager, logger)
	manager.DumpAll()

	if statusSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = statusSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	printSummary(runStats.Snapshot(), start)
	return nil
}

func openSource(flags cliFlags) (decoder.Source, error) {
	if flags.offlineFile != "" {
		return decoder.OpenOffline(flags.offlineFile)
	}
	return decoder.OpenLive(flags.iface, 65535, true, time.Second)
}

func captureLoop(ctx context.Context, source decoder.Source, manager *flowmanager.Manager, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pkt, err := source.NextPacket()
		if err != nil {
			if !errors.Is(err, decoder.ErrMalformedPacket) {
				return
			}
			logger.Debug("skipping malformed packet", "err", err)
			manager.RecordDecodeError()
			continue
		}
		manager.Process(pkt, pkt.Timestamp.UnixMilli())
	}
}

func buildSinks(outputPath, sheetsCreds, sheetsID string, sheetsBatchSize int, logger *slog.Logger) ([]sink.Sink, error) {
	csvSink, err := sink.NewCSVSink(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sink.ErrSinkInit, err)
	}
	sinks := []sink.Sink{csvSink}

	if sheetsCreds != "" && sheetsID != "" {
		sheetSink, err := sink.NewSheetsSink(context.Background(), sheetsCreds, sheetsID)
		if err != nil {
			// Sink-fatal per spec section 7: disable this sink, continue with the rest.
			logger.Warn("remote sink disabled", "err", err)
		} else {
			sheetSink.SetBatchSize(sheetsBatchSize)
			sinks = append(sinks, sheetSink)
			logger.Info("remote sink enabled", "url", sheetSink.URL())
		}
	}

	return sinks, nil
}

func listInterfaces() error {
	devices, err := pcap.FindAllDevs()
	if err != nil {
		return fmt.Errorf("list interfaces: %w", err)
	}
	for _, d := range devices {
		fmt.Printf("%s\t%s\n", d.Name, d.Description)
	}
	return nil
}

func printSummary(snap runstats.Snapshot, start time.Time) {
	end := time.Now()
	fmt.Printf("totalPackets=%d skippedPackets=%d skipPercent=%.2f%% start=%s end=%s duration=%s\n",
		snap.TotalPackets, snap.SkippedPackets, snap.SkipPercent,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), end.Sub(start))
}
