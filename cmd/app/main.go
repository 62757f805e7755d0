package main

import (
    "context"
    "flag"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "path/filepath"
    "strings"
    "syscall"

    "github.com/google/uuid"
    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/miroexport/internal/config"
    "github.com/local/miroexport/internal/export"
    "github.com/local/miroexport/internal/filetype"
    logpkg "github.com/local/miroexport/internal/logger"
    "github.com/local/miroexport/internal/metrics"
    "github.com/local/miroexport/internal/outdir"
    "github.com/local/miroexport/internal/pagesource"
    "github.com/local/miroexport/internal/pagespec"
    "github.com/local/miroexport/internal/storage"
    "github.com/local/miroexport/internal/store"
)

func main() {
    os.Exit(run())
}

func run() int {
    _ = godotenv.Load()
    cfg := cfgpkg.FromEnv()

    var (
        input    = flag.String("input", "", "path to the PDF to export")
        pages    = flag.String("pages", "", "page selection, e.g. '1,3-5' (default: all)")
        profile  = flag.String("profile", cfg.Export.Profile, "export profile name")
        outDir   = flag.String("out", cfg.Export.OutputDir, "output directory (default: next to input)")
        manifest = flag.Bool("manifest", cfg.Export.WriteManifest, "write miro_export.json")
    )
    flag.Parse()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level:        cfg.Logging.Level,
        Pretty:       cfg.Logging.Pretty,
        File:         cfg.Logging.File,
        MaxSizeMB:    cfg.Logging.MaxSizeMB,
        MaxBackups:   cfg.Logging.MaxBackups,
        MaxAgeDays:   cfg.Logging.MaxAgeDays,
        Compress:     cfg.Logging.Compress,
        SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey:  cfg.Axiom.APIKey,
        AxiomOrgID:   cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush:   cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    if *input == "" {
        fmt.Fprintln(os.Stderr, "usage: app -input file.pdf [-pages 1,3-5] [-profile miro] [-out dir]")
        return 2
    }

    metrics.Init()
    if cfg.Metrics.Addr != "" {
        mux := http.NewServeMux()
        mux.Handle("/metrics", metrics.Handler())
        go func() {
            log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listener started")
            if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
                log.Error().Err(err).Msg("metrics listener error")
            }
        }()
    }

    // Cancellation: first SIGINT/SIGTERM cancels the batch cooperatively.
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    go func() {
        <-stop
        log.Warn().Msg("signal received; cancelling export")
        cancel()
    }()

    if err := filetype.New().EnsurePDF(*input); err != nil {
        log.Error().Err(err).Str("file", *input).Msg("input rejected")
        return 1
    }

    src, err := pagesource.NewFitzSource(*input)
    if err != nil {
        log.Error().Err(err).Str("file", *input).Msg("failed to open input")
        return 1
    }
    defer src.Close()

    pageList, err := pagespec.Parse(*pages, src.PageCount())
    if err != nil {
        log.Error().Err(err).Str("spec", *pages).Msg("invalid page selection")
        return 2
    }

    prof, err := export.ProfileByName(*profile)
    if err != nil {
        log.Error().Err(err).Msg("invalid profile")
        return 2
    }
    if cfg.Export.Limits.MaxBytes > 0 {
        prof.MaxBytes = cfg.Export.Limits.MaxBytes
    }
    if err := prof.Validate(); err != nil {
        log.Error().Err(err).Msg("invalid profile")
        return 2
    }
    limits := export.Limits{
        MaxLongEdge:  cfg.Export.Limits.MaxLongEdge,
        MaxShortEdge: cfg.Export.Limits.MaxShortEdge,
        MaxPixels:    cfg.Export.Limits.MaxPixels,
    }

    dir, err := outdir.Resolve(*input, *outDir)
    if err != nil {
        log.Error().Err(err).Msg("failed to resolve output dir")
        return 1
    }
    stem := strings.TrimSuffix(filepath.Base(*input), filepath.Ext(*input))

    // Optional Redis status reporting
    jobID := uuid.NewString()
    var sink *store.JobSink
    if cfg.Status.Enabled {
        rs, err := store.NewRedisStatus(cfg.Status.RedisURL)
        if err != nil {
            log.Warn().Err(err).Msg("status store unavailable; continuing without it")
        } else {
            defer rs.Close()
            sink = store.NewJobSink(ctx, rs, jobID, len(pageList))
        }
    }

    opts := export.Options{
        Profile:       prof,
        Limits:        limits,
        OutDir:        dir,
        Stem:          stem,
        WriteManifest: *manifest,
    }
    if sink != nil {
        opts.Status = sink
    }

    log.Info().Str("job_id", jobID).Str("file", *input).Ints("pages", pageList).Msg("export job created")
    outcome, err := export.New(opts).Export(ctx, src, pageList)
    if err != nil {
        if sink != nil {
            sink.Finish(context.Background(), "cancelled")
        }
        log.Error().Err(err).Str("job_id", jobID).Msg("export aborted")
        return 1
    }
    if sink != nil {
        sink.Finish(context.Background(), "success")
    }

    // Optional S3 upload of artifacts + manifest
    if cfg.Storage.Enabled && len(outcome.Files) > 0 {
        cli, err := storage.NewS3Client(ctx, cfg.Storage.Bucket)
        if err != nil {
            log.Error().Err(err).Msg("S3 upload skipped")
        } else {
            prefix := storage.SanitizePrefix(cfg.Storage.Prefix, jobID)
            files := outcome.Files
            if outcome.ManifestPath != "" {
                files = append(files, outcome.ManifestPath)
            }
            if _, err := cli.UploadAll(ctx, prefix, files); err != nil {
                log.Error().Err(err).Msg("S3 upload failed")
            }
        }
    }

    for _, w := range outcome.Warnings {
        log.Warn().Str("job_id", jobID).Msg(w)
    }

    exported := len(outcome.Files)
    log.Info().
        Str("job_id", jobID).
        Int("requested", len(pageList)).
        Int("exported", exported).
        Str("manifest", outcome.ManifestPath).
        Msg("done")

    if exported == 0 {
        return 1
    }
    return 0
}
