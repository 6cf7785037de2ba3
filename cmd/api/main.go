package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"audio-insights-go/internal/analysis"
	"audio-insights-go/internal/audio"
	"audio-insights-go/internal/config"
	"audio-insights-go/internal/dispatch"
	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/pipeline"
	"audio-insights-go/internal/report"
	"audio-insights-go/internal/transcription"
	"audio-insights-go/internal/usage"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "audio-insights-go").Info("starting service")

	settings := config.LoadSettings()
	if err := settings.EnsureDirs(); err != nil {
		log.WithError(err).Fatal("failed to create working directories")
	}

	creds, err := config.DefaultResolver(log, settings.ConfigFile).Resolve()
	if err != nil {
		log.WithError(err).Fatal("failed to resolve credentials")
	}

	var backend transcription.Backend
	if settings.SpeechBaseURL != "" {
		backend = transcription.NewHTTPBackend(settings.SpeechBaseURL, creds.SpeechKey, settings.SpeechModel)
	} else {
		backend = transcription.NewOpenAIBackend(creds.SpeechKey, settings.SpeechModel)
	}
	log.WithField("backend", backend.Name()).Info("transcription backend selected")

	mailer, err := dispatch.NewMailer(creds, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build mailer")
	}

	recorder := usage.NewRecorder(log,
		usage.NewSheetsSink(context.Background(), creds, settings.SheetRange),
		usage.NewCSVSink(settings.UsageLogPath),
	)

	orch := pipeline.New(pipeline.Deps{
		Normalizer:  audio.NewNormalizer(audio.Options{TempRoot: settings.TempDir, FFmpegPath: settings.FFmpegPath, Log: log}),
		Transcriber: transcription.New(backend, settings.Language, log),
		Analyzer:    analysis.New(creds.SpeechKey, settings.AnalysisModel, log),
		Renderer:    report.NewRenderer(settings.ResultsDir, log),
		Dispatcher:  mailer,
		Recorder:    recorder,
		Log:         log,
		OnStage: func(runID string, s pipeline.Stage) {
			log.WithRun(runID).WithField("stage", s).Debug("stage transition")
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthz(log))
	mux.Handle("/process", &processHandler{runner: orch, maxBytes: maxUploadBytes, log: log})

	addr := fmt.Sprintf(":%s", settings.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
