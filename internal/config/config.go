// Package config loads legallens.yaml, applies defaults and LEGALLENS_* environment overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/codalotl/legallens/internal/cache"
	"github.com/codalotl/legallens/internal/llmcomplete"
	"github.com/codalotl/legallens/internal/storage"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file searched for from the working directory upward.
const FileName = "legallens.yaml"

type Config struct {
	Debug    bool           `yaml:"debug"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Export   ExportConfig   `yaml:"export"`
	Cache    CacheConfig    `yaml:"cache"`
	Search   SearchConfig   `yaml:"search"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Path is the file the config was read from; empty when only defaults apply.
	Path string `yaml:"-"`
}

type DatasetConfig struct {
	Path        string `yaml:"path"`
	FilterField string `yaml:"filter_field"`
}

type ExportConfig struct {
	MaxTokens  int            `yaml:"max_tokens"`
	FilePrefix string         `yaml:"file_prefix"`
	Encoding   string         `yaml:"encoding"`
	Storage    storage.Config `yaml:"storage"`
}

type CacheConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	SizeLimit int64  `yaml:"size_limit"` // bytes; negative means unlimited
}

type SearchConfig struct {
	Endpoint     string `yaml:"endpoint"`
	DefaultField string `yaml:"default_field"`
	Size         int    `yaml:"size"`
}

type LLMConfig struct {
	Provider   string `yaml:"provider"`
	APIKeyEnv  string `yaml:"api_key_env"`
	BaseURL    string `yaml:"base_url"`
	CheapModel string `yaml:"cheap_model"`
	LargeModel string `yaml:"large_model"`
	Threshold  int    `yaml:"threshold"`
	Seed       *int64 `yaml:"seed"` // unset means classify.DefaultSeed; 0 is a valid seed
	Encoding   string `yaml:"encoding"`
}

type PipelineConfig struct {
	QueriesFile  string `yaml:"queries_file"` // empty means the built-in queries
	ResultsPath  string `yaml:"results_path"`
	ContentLimit int    `yaml:"content_limit"`
}

// Load reads path, or the nearest legallens.yaml when path is empty. With no file, defaults apply. A .env file next to the config (or in the working directory)
// is loaded first without overriding variables already set.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := FindNearest()
		if err != nil {
			return nil, err
		}
		path = found
	}

	var cfg Config
	baseDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		cfg.Path = path
		baseDir = filepath.Dir(path)
	}

	if err := loadDotEnv(baseDir); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	ApplyDefaults(&cfg)
	resolvePaths(&cfg, baseDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindNearest returns the closest legallens.yaml in the working directory or its ancestors, or "" if there is none.
func FindNearest() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func loadDotEnv(baseDir string) error {
	seen := map[string]bool{}
	for _, dir := range []string{baseDir, "."} {
		p := filepath.Join(dir, ".env")
		abs, err := filepath.Abs(p)
		if err == nil {
			p = abs
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// applyEnv overlays LEGALLENS_* variables. They win over the file.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("LEGALLENS_DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	setString(&cfg.Dataset.Path, "LEGALLENS_DATASET")
	setString(&cfg.Export.Storage.Dir, "LEGALLENS_EXPORT_DIR")
	setString(&cfg.Export.Storage.Bucket, "LEGALLENS_EXPORT_BUCKET")
	// Static S3 credentials are env-only so they never land in legallens.yaml.
	setString(&cfg.Export.Storage.AccessKey, "LEGALLENS_S3_ACCESS_KEY")
	setString(&cfg.Export.Storage.SecretKey, "LEGALLENS_S3_SECRET_KEY")
	setString(&cfg.Cache.Backend, "LEGALLENS_CACHE_BACKEND")
	setString(&cfg.Cache.Path, "LEGALLENS_CACHE_DIR")
	setString(&cfg.Search.Endpoint, "LEGALLENS_SEARCH_ENDPOINT")
	setString(&cfg.LLM.Provider, "LEGALLENS_LLM_PROVIDER")
	setString(&cfg.LLM.BaseURL, "LEGALLENS_LLM_BASE_URL")
	setString(&cfg.Pipeline.ResultsPath, "LEGALLENS_RESULTS")
	setString(&cfg.Pipeline.QueriesFile, "LEGALLENS_QUERIES")
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func resolvePaths(cfg *Config, baseDir string) {
	cfg.Dataset.Path = resolve(cfg.Dataset.Path, baseDir)
	cfg.Cache.Path = resolve(cfg.Cache.Path, baseDir)
	cfg.Pipeline.QueriesFile = resolve(cfg.Pipeline.QueriesFile, baseDir)
	cfg.Pipeline.ResultsPath = resolve(cfg.Pipeline.ResultsPath, baseDir)
	if cfg.Export.Storage.Type == storage.TypeLocal {
		cfg.Export.Storage.Dir = resolve(cfg.Export.Storage.Dir, baseDir)
	}
}

// resolve makes relative paths relative to the config file's directory.
func resolve(path string, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "." {
		return path
	}
	return filepath.Join(baseDir, path)
}

// APIKey returns the LLM credential from the environment variable named by LLM.APIKeyEnv.
func (c *Config) APIKey() (string, error) {
	if v := os.Getenv(c.LLM.APIKeyEnv); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: set %s", llmcomplete.ErrNoAPIKey, c.LLM.APIKeyEnv)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Cache.Backend {
	case cache.BackendSQLite, cache.BackendFS, cache.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend))
	}
	switch c.Export.Storage.Type {
	case storage.TypeLocal:
	case storage.TypeS3:
		if c.Export.Storage.Bucket == "" {
			errs = append(errs, errors.New("export.storage.bucket: required for s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("export.storage.type: unknown type %q", c.Export.Storage.Type))
	}
	switch llmcomplete.ProviderID(c.LLM.Provider) {
	case llmcomplete.ProviderOpenAI, llmcomplete.ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider))
	}
	if c.Export.MaxTokens <= 0 {
		errs = append(errs, errors.New("export.max_tokens: must be positive"))
	}
	if c.LLM.Threshold <= 0 {
		errs = append(errs, errors.New("llm.threshold: must be positive"))
	}
	if c.Search.Size <= 0 {
		errs = append(errs, errors.New("search.size: must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
