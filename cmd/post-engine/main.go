// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the post-engine CLI. Each pipeline
// stage is a subcommand operating on the JSON state directory; batch
// chains them with the retry budget.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/post-engine/internal/genai"
	"github.com/pdiddy/post-engine/internal/history"
	"github.com/pdiddy/post-engine/internal/secrets"
	"github.com/pdiddy/post-engine/internal/state"
	"github.com/pdiddy/post-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultStateDir    = ".state"
	defaultContentDir  = "content/posts"
	defaultUserAgent   = "post-engine/0.1"
	defaultHTTPTimeout = 15 * time.Second
)

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the post-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "post-engine",
	Short: "Unattended content-generation pipeline",
	Long: `post-engine plans, researches, drafts, gates, and publishes technical
blog posts without human review. Each stage is a subcommand that reads and
writes JSON state files; batch runs the whole pipeline with a retry budget
and only a passing quality report ever reaches the content directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./post-engine.yaml or ~/.config/post-engine/config.yaml)")
	rootCmd.PersistentFlags().String("state-dir", "", "state directory for stage artifacts (default .state)")
	rootCmd.PersistentFlags().String("content-dir", "", "published posts directory (default content/posts)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("post-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "post-engine"))
		}
	}

	viper.SetEnvPrefix("POST_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig builds the pipeline configuration: YAML config file when one
// was found, then secrets and environment for the generation credentials.
func loadConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	apiKey := viper.GetString("openai_api_key")
	if apiKey == "" {
		apiKey = loadedSecrets["openai-api-key"]
	}
	model := viper.GetString("openai_model")
	if model == "" {
		model = loadedSecrets["openai-model"]
	}

	if cfg.Research.APIKey == "" {
		cfg.Research.APIKey = apiKey
	}
	if cfg.Research.Model == "" {
		cfg.Research.Model = model
	}
	if cfg.Draft.APIKey == "" {
		cfg.Draft.APIKey = apiKey
	}
	if cfg.Draft.Model == "" {
		cfg.Draft.Model = model
	}
	return cfg, nil
}

// stateDir resolves the state directory from flag, config, then default.
func stateDir(cmd *cobra.Command, cfg types.PipelineConfig) string {
	if dir, _ := cmd.Flags().GetString("state-dir"); dir != "" {
		return dir
	}
	if cfg.Publish.StateDir != "" {
		return cfg.Publish.StateDir
	}
	return defaultStateDir
}

// contentDir resolves the content directory from flag, config, then default.
func contentDir(cmd *cobra.Command, cfg types.PipelineConfig) string {
	if dir, _ := cmd.Flags().GetString("content-dir"); dir != "" {
		return dir
	}
	if cfg.Publish.ContentDir != "" {
		return cfg.Publish.ContentDir
	}
	return defaultContentDir
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

func newBackend(cfg types.AIConfig) genai.Backend {
	return genai.NewClient(newHTTPClient(types.HTTPConfig{}), cfg)
}

// openHistory opens the publish-history index. Failure is non-fatal for
// read paths; callers that can degrade pass the nil store on.
func openHistory(stateDir, contentDir string) (*history.Store, error) {
	return history.NewStore(stateDir, contentDir)
}

func newStateStore(dir string) (*state.Store, error) {
	return state.NewStore(dir)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
