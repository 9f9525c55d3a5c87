package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the dialogue service.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory
	Data string
	// DSN points to where converse stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the service
	Version string

	// AI Configuration
	AIAPIKey         string // CONVERSE_AI_API_KEY
	AIBaseURL        string // CONVERSE_AI_BASE_URL (default: https://api.openai.com/v1)
	AIChatModel      string // CONVERSE_AI_CHAT_MODEL (default: gpt-4o-mini)
	AIEmbeddingModel string // CONVERSE_AI_EMBEDDING_MODEL (default: text-embedding-3-small)
	// AIEmbeddingEnabled toggles embedding generation for memory segments.
	AIEmbeddingEnabled bool // CONVERSE_AI_EMBEDDING_ENABLED (default: false)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != ""
}

// FromEnv loads configuration from CONVERSE_* environment variables on top
// of whatever was already set by flags.
func (p *Profile) FromEnv() {
	v := viper.New()
	v.SetEnvPrefix("converse")
	v.AutomaticEnv()

	v.SetDefault("mode", p.Mode)
	v.SetDefault("data", p.Data)
	v.SetDefault("dsn", p.DSN)
	v.SetDefault("driver", p.Driver)
	v.SetDefault("ai_api_key", p.AIAPIKey)
	v.SetDefault("ai_base_url", "https://api.openai.com/v1")
	v.SetDefault("ai_chat_model", "gpt-4o-mini")
	v.SetDefault("ai_embedding_model", "text-embedding-3-small")
	v.SetDefault("ai_embedding_enabled", false)

	p.Mode = v.GetString("mode")
	p.Data = v.GetString("data")
	p.DSN = v.GetString("dsn")
	p.Driver = v.GetString("driver")
	p.AIAPIKey = v.GetString("ai_api_key")
	p.AIBaseURL = v.GetString("ai_base_url")
	p.AIChatModel = v.GetString("ai_chat_model")
	p.AIEmbeddingModel = v.GetString("ai_embedding_model")
	p.AIEmbeddingEnabled = v.GetBool("ai_embedding_enabled")
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
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		p.Driver = "sqlite"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/converse"
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("converse_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	return nil
}
