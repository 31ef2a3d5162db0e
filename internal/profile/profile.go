package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where mailsense stores its own records
	DSN string
	// Driver is the record store driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// Milvus connection
	MilvusHost       string // MAILSENSE_MILVUS_HOST (default: localhost)
	MilvusPort       int    // MAILSENSE_MILVUS_PORT (default: 19530)
	MilvusUser       string // MAILSENSE_MILVUS_USER
	MilvusPassword   string // MAILSENSE_MILVUS_PASSWORD
	MilvusDatabase   string // MAILSENSE_MILVUS_DATABASE (default: default)
	MilvusCollection string // MAILSENSE_MILVUS_COLLECTION (default: emails)
	// MilvusReset drops and recreates the collection on startup.
	MilvusReset bool // MAILSENSE_MILVUS_RESET

	// Embedding configuration
	EmbeddingProvider   string // MAILSENSE_EMBEDDING_PROVIDER (default: openai)
	EmbeddingAPIKey     string // MAILSENSE_EMBEDDING_API_KEY
	EmbeddingBaseURL    string // MAILSENSE_EMBEDDING_BASE_URL
	EmbeddingModel      string // MAILSENSE_EMBEDDING_MODEL (default: all-mpnet-base-v2)
	EmbeddingDimensions int    // MAILSENSE_EMBEDDING_DIMENSIONS (default: 768)
	EmbeddingRPM        int    // MAILSENSE_EMBEDDING_RPM (default: 300, 0 disables limiting)

	// RequestTimeout bounds every inference/ingestion request, external
	// calls included.
	RequestTimeout time.Duration // MAILSENSE_REQUEST_TIMEOUT (default: 30s)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// MilvusAddress returns the host:port address of the vector index.
func (p *Profile) MilvusAddress() string {
	return fmt.Sprintf("%s:%d", p.MilvusHost, p.MilvusPort)
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// FromEnv loads configuration from MAILSENSE_* environment variables.
func (p *Profile) FromEnv() {
	p.MilvusHost = getEnvOrDefault("MAILSENSE_MILVUS_HOST", "localhost")
	p.MilvusPort = getIntEnvOrDefault("MAILSENSE_MILVUS_PORT", 19530)
	p.MilvusUser = os.Getenv("MAILSENSE_MILVUS_USER")
	p.MilvusPassword = os.Getenv("MAILSENSE_MILVUS_PASSWORD")
	p.MilvusDatabase = getEnvOrDefault("MAILSENSE_MILVUS_DATABASE", "default")
	p.MilvusCollection = getEnvOrDefault("MAILSENSE_MILVUS_COLLECTION", "emails")
	p.MilvusReset = os.Getenv("MAILSENSE_MILVUS_RESET") == "true"

	p.EmbeddingProvider = getEnvOrDefault("MAILSENSE_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingAPIKey = os.Getenv("MAILSENSE_EMBEDDING_API_KEY")
	p.EmbeddingBaseURL = os.Getenv("MAILSENSE_EMBEDDING_BASE_URL")
	p.EmbeddingModel = getEnvOrDefault("MAILSENSE_EMBEDDING_MODEL", "all-mpnet-base-v2")
	p.EmbeddingDimensions = getIntEnvOrDefault("MAILSENSE_EMBEDDING_DIMENSIONS", 768)
	p.EmbeddingRPM = getIntEnvOrDefault("MAILSENSE_EMBEDDING_RPM", 300)

	if value := os.Getenv("MAILSENSE_REQUEST_TIMEOUT"); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			p.RequestTimeout = d
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unknown store driver %q: only 'sqlite' and 'postgres' are supported", p.Driver)
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("mailsense_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	if p.EmbeddingDimensions <= 0 {
		return errors.Errorf("invalid embedding dimensions: %d", p.EmbeddingDimensions)
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = 30 * time.Second
	}

	return nil
}
