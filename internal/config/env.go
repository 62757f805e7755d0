package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// LimitsConfig holds the absolute dimension ceilings for exported artifacts.
// Defaults match the board platform's ingestion limits.
type LimitsConfig struct {
    MaxBytes     int64
    MaxLongEdge  int
    MaxShortEdge int
    MaxPixels    int64
}

// ExportConfig defines export pipeline defaults.
type ExportConfig struct {
    Profile       string
    OutputDir     string
    WriteManifest bool
    Limits        LimitsConfig
}

// StatusConfig defines the optional Redis status store.
type StatusConfig struct {
    Enabled  bool
    RedisURL string
}

// StorageConfig defines the optional S3 upload of finished artifacts.
type StorageConfig struct {
    Enabled bool
    Bucket  string
    Prefix  string
}

// MetricsConfig defines the optional Prometheus listener.
type MetricsConfig struct {
    Addr string
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Export  ExportConfig
    Status  StatusConfig
    Storage StorageConfig
    Metrics MetricsConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/miroexport.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_miroexport",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Export = ExportConfig{
        Profile:       getEnv("MIRO_PROFILE", "miro"),
        OutputDir:     getEnv("MIRO_OUTPUT_DIR", ""),
        WriteManifest: parseBool(getEnv("MIRO_WRITE_MANIFEST", "true")),
        Limits: LimitsConfig{
            MaxBytes:     parseInt64(getEnv("MIRO_MAX_BYTES", ""), 0),
            MaxLongEdge:  parseInt(getEnv("MIRO_MAX_LONG_EDGE", "8192"), 8192),
            MaxShortEdge: parseInt(getEnv("MIRO_MAX_SHORT_EDGE", "4096"), 4096),
            MaxPixels:    parseInt64(getEnv("MIRO_MAX_PIXELS", "33554432"), 33554432),
        },
    }

    redisURL := getEnv("REDIS_URL", "")
    cfg.Status = StatusConfig{
        Enabled:  redisURL != "" && parseBool(getEnv("EXPORT_STATUS_ENABLED", "true")),
        RedisURL: redisURL,
    }

    bucket := getEnv("AWS_S3_BUCKET", "")
    cfg.Storage = StorageConfig{
        Enabled: bucket != "" && parseBool(getEnv("UPLOAD_TO_S3", "0")),
        Bucket:  bucket,
        Prefix:  getEnv("AWS_S3_PREFIX", "miro-exports"),
    }

    cfg.Metrics = MetricsConfig{
        Addr: getEnv("METRICS_ADDR", ""),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseInt64(s string, def int64) int64 {
    if s == "" { return def }
    if n, err := strconv.ParseInt(s, 10, 64); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
