package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"phishguard/internal/repository"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Probes   ProbesConfig   `yaml:"probes"`
	Decision DecisionConfig `yaml:"decision"`
	Lexical  LexicalConfig  `yaml:"lexical"`
	Lists    ListsConfig    `yaml:"lists"`
	Model    ModelConfig    `yaml:"model"`
}

type AppConfig struct {
	DBPath string `yaml:"db_path"`
}

type ProbesConfig struct {
	Workers        int `yaml:"workers"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type DecisionConfig struct {
	HighScore          float64 `yaml:"high_score"`
	MediumScore        float64 `yaml:"medium_score"`
	HighConfidence     float64 `yaml:"high_confidence"`
	OverrideConfidence float64 `yaml:"override_confidence"`
	HeuristicPhishing  float64 `yaml:"heuristic_phishing"`
	InspectContent     bool    `yaml:"inspect_content"`
}

type LexicalConfig struct {
	TrustedDomains []string `yaml:"trusted_domains"`
	Shorteners     []string `yaml:"shorteners"`
}

type ListsConfig struct {
	Sources   []repository.FeedSource `yaml:"sources"`
	Blacklist []string                `yaml:"blacklist"`
	Whitelist []string                `yaml:"whitelist"`
}

type ModelConfig struct {
	Dir         string `yaml:"dir"`
	ONNXLibrary string `yaml:"onnx_library"`
}

// Secrets are environment-sourced, never part of the YAML file. A .env
// file in the working directory is honored when present.
type Secrets struct {
	GoogleAPIKey    string
	GoogleEngineID  string
	SafeBrowsingKey string
}

func LoadSecrets() Secrets {
	_ = godotenv.Load()
	return Secrets{
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		GoogleEngineID:  os.Getenv("GOOGLE_CSE_ID"),
		SafeBrowsingKey: os.Getenv("GOOGLE_SAFE_BROWSING_KEY"),
	}
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			DBPath: "data/phishguard.db",
		},
		Probes: ProbesConfig{
			Workers:        4,
			TimeoutSeconds: 10,
		},
		Decision: DecisionConfig{
			HighScore:          80,
			MediumScore:        60,
			HighConfidence:     0.7,
			OverrideConfidence: 0.9,
			HeuristicPhishing:  60,
			InspectContent:     true,
		},
		Model: ModelConfig{
			Dir:         "models",
			ONNXLibrary: "/usr/lib/libonnxruntime.so",
		},
	}
}

// Load reads the first config file found on the search path, or falls
// back to built-in defaults when none exists. An explicit path, when
// given, must exist.
func Load(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return parseConfigFile(explicitPath)
	}

	searchPaths := []string{
		"configs/config.yaml",
		"./config.yaml",
		"/etc/phishguard/config.yaml",
		"/var/lib/phishguard/configs/config.yaml",
	}

	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			log.Printf("Loading config from: %s", p)
			return parseConfigFile(p)
		}
	}

	log.Println("No config file found, using built-in defaults")
	return defaults(), nil
}

func parseConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Start from defaults so a sparse file only overrides what it names.
	cfg := defaults()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return cfg, nil
}
