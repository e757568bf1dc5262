// Command sdrpipeline runs the SDR channelization and streaming
// transcription pipeline: it ingests wideband I/Q over UDP/TCP, splits it
// into N narrowband FM channels, demodulates and resamples each to 16 kHz
// PCM, and streams the result to a recognizer, exporting transcripts to a
// retrieval store and live partials to a frontend.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sdrpipeline/sdrstream/internal/asr"
	"github.com/sdrpipeline/sdrstream/internal/config"
	"github.com/sdrpipeline/sdrstream/internal/dsp"
	"github.com/sdrpipeline/sdrstream/internal/export"
	"github.com/sdrpipeline/sdrstream/internal/ingest"
	"github.com/sdrpipeline/sdrstream/internal/logging"
	"github.com/sdrpipeline/sdrstream/internal/pipeline"
	"github.com/sdrpipeline/sdrstream/internal/queue"
	"github.com/sdrpipeline/sdrstream/internal/readiness"
	"github.com/sdrpipeline/sdrstream/internal/stream"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the pipeline YAML config")
	healthAddr := flag.String("health-addr", ":8080", "address the /healthz server listens on")
	flag.Parse()

	if err := run(*configPath, *healthAddr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, healthAddr string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Name("sdrpipeline"), logging.Level(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	channelBW := 2 * cfg.LowpassFilt.Cutoff
	if err := cfg.ValidateBandwidth(channelBW); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received, stopping pipeline")
		cancel()
	}()

	health := export.NewHealthServer(logger)
	go func() {
		if err := health.ListenAndServe(healthAddr); err != nil {
			logger.Errorf("health server stopped: %v", err)
		}
	}()

	asrHostPort := hostPort(cfg.ASRURI)

	logger.Info("waiting for downstream endpoints to become reachable")
	if err := readiness.WaitForAll(ctx, logger, asrHostPort, hostPort(cfg.FrontendURI), hostPort(cfg.DatabaseURI)); err != nil {
		return fmt.Errorf("readiness: %w", err)
	}
	health.SetReady(true)

	retrieval := export.NewRetrievalClient(httpURI(cfg.DatabaseURI), logger)
	frontend := export.NewFrontendClient(httpURI(cfg.FrontendURI), logger)

	numChannels := cfg.Channelizer.NumChannels
	channelizer, err := dsp.NewChannelizer(numChannels, cfg.Channelizer.ChannelSpacing)
	if err != nil {
		return err
	}

	receiver := ingest.NewNetworkReceiver(cfg.NetworkRx, logger)
	defer receiver.Close()
	formatter := ingest.NewFormatter(cfg.Sensor.SampleRate, time.Duration(cfg.PktFormat.LogPeriod*float64(time.Second)), logger)

	graph := pipeline.NewGraph()

	iqQueues := make([]*queue.Queue[[]complex64], numChannels)
	audioQueues := make([]*queue.Queue[[]byte], numChannels)
	for k := 0; k < numChannels; k++ {
		iqQueues[k] = queue.New[[]complex64](fmt.Sprintf("channel %d IQ input", k), logger)
		audioQueues[k] = queue.New[[]byte](fmt.Sprintf("channel %d PCM output", k), logger)
	}

	graph.Add(stream.NewIngestOperator(receiver, formatter, channelizer, iqQueues, logger))

	asrCfg := asr.RecognitionConfig{
		SampleRateHertz:      cfg.Riva.SampleRate,
		LanguageCode:         cfg.Riva.SrcLangCode,
		AutomaticPunctuation: cfg.Riva.AutomaticPunctuation,
		VerbatimTranscripts:  cfg.Riva.VerbatimTranscripts,
	}
	exportTimeout := time.Duration(cfg.Riva.DBExportTimeoutSec * float64(time.Second))

	workers := make([]*asr.Worker, numChannels)
	for k := 0; k < numChannels; k++ {
		lowpass, err := dsp.NewLowpassFilter(cfg.LowpassFilt.NumTaps, cfg.LowpassFilt.Cutoff, cfg.Sensor.SampleRate)
		if err != nil {
			return err
		}
		resampler := dsp.NewResampler(cfg.Resample.SampleRateOut, cfg.Resample.Gain)
		demod := dsp.NewFMDemodulator()

		graph.Add(stream.NewChannelOperator(
			k, cfg.Sensor.SampleRate, lowpass, demod, resampler,
			iqQueues[k], audioQueues[k], logger,
		))

		segmenter := asr.NewSegmenter(k, cfg.Riva.MinDBExportChars, exportTimeout)
		workers[k] = asr.NewWorker(
			k, asrHostPort, cfg.RAGUUID, asrCfg, segmenter,
			retrieval, frontend, k == 0, logger,
		)
	}

	for k, w := range workers {
		audio := audioQueues[k]
		worker := w
		go func() {
			if err := worker.Run(ctx, audio); err != nil {
				logger.Warnf("asr worker stopped: %v", err)
			}
		}()
	}

	scheduler := pipeline.NewScheduler(graph, numChannels+1, logger)
	logger.Infof("starting pipeline: %d channels", numChannels)
	return scheduler.Run(ctx)
}

// httpURI normalizes a host:port endpoint (as used by readiness's TCP
// probe) into an http:// base URL for the resty-backed export clients, when
// the config value is given as a bare host:port rather than a full URL.
func httpURI(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "http://" + endpoint
}

// hostPort extracts the host:port pair readiness's TCP probe and the gRPC
// dialer both need, accepting either a bare "host:port" config value or a
// full "scheme://host:port" URI.
func hostPort(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return endpoint
}
