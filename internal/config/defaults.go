package config

import (
	"github.com/codalotl/legallens/internal/cache"
	"github.com/codalotl/legallens/internal/classify"
	"github.com/codalotl/legallens/internal/exporter"
	"github.com/codalotl/legallens/internal/llmcomplete"
	"github.com/codalotl/legallens/internal/pipeline"
	"github.com/codalotl/legallens/internal/schema"
	"github.com/codalotl/legallens/internal/search"
	"github.com/codalotl/legallens/internal/storage"
	"github.com/codalotl/legallens/internal/tokens"
)

const (
	geminiCheapModel = "gemini-2.0-flash"
	geminiLargeModel = "gemini-2.5-pro"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = "data/bger-2023-5-text.parquet"
	}
	if cfg.Dataset.FilterField == "" {
		cfg.Dataset.FilterField = schema.KeyLeadingCase
	}

	if cfg.Export.MaxTokens == 0 {
		cfg.Export.MaxTokens = exporter.DefaultMaxTokens
	}
	if cfg.Export.FilePrefix == "" {
		cfg.Export.FilePrefix = exporter.DefaultFilePrefix
	}
	if cfg.Export.Encoding == "" {
		cfg.Export.Encoding = tokens.DefaultEncoding
	}
	if cfg.Export.Storage.Type == "" {
		cfg.Export.Storage.Type = storage.TypeLocal
	}
	if cfg.Export.Storage.Type == storage.TypeLocal && cfg.Export.Storage.Dir == "" {
		cfg.Export.Storage.Dir = "."
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = cache.BackendSQLite
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "legal-cache"
	}
	if cfg.Cache.SizeLimit == 0 {
		cfg.Cache.SizeLimit = cache.DefaultSizeLimit
	}

	if cfg.Search.Endpoint == "" {
		cfg.Search.Endpoint = search.DefaultEndpoint
	}
	if cfg.Search.DefaultField == "" {
		cfg.Search.DefaultField = search.DefaultField
	}
	if cfg.Search.Size == 0 {
		cfg.Search.Size = search.DefaultSize
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = string(llmcomplete.ProviderOpenAI)
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = llmcomplete.DefaultAPIKeyEnv[llmcomplete.ProviderID(cfg.LLM.Provider)]
	}
	cheap, large := classify.DefaultCheapModel, classify.DefaultLargeModel
	if cfg.LLM.Provider == string(llmcomplete.ProviderGemini) {
		cheap, large = geminiCheapModel, geminiLargeModel
	}
	if cfg.LLM.CheapModel == "" {
		cfg.LLM.CheapModel = cheap
	}
	if cfg.LLM.LargeModel == "" {
		cfg.LLM.LargeModel = large
	}
	if cfg.LLM.Threshold == 0 {
		cfg.LLM.Threshold = classify.DefaultThreshold
	}
	if cfg.LLM.Seed == nil {
		seed := int64(classify.DefaultSeed)
		cfg.LLM.Seed = &seed
	}
	if cfg.LLM.Encoding == "" {
		cfg.LLM.Encoding = tokens.DefaultEncoding
	}

	if cfg.Pipeline.ResultsPath == "" {
		cfg.Pipeline.ResultsPath = "results.csv"
	}
	if cfg.Pipeline.ContentLimit == 0 {
		cfg.Pipeline.ContentLimit = pipeline.DefaultContentLimit
	}
}
