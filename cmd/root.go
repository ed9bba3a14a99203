package cmd

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/jobboard"
	"github.com/jobdeck/jobdeck/internal/logger"
	"github.com/jobdeck/jobdeck/internal/secrets"
)

const (
	app = "jobdeck"
)

type Config struct {
	APIURL      string             `mapstructure:"api-url"`
	UserAgent   string             `mapstructure:"user-agent"`
	TokenFile   string             `mapstructure:"token-file"`
	Interview   *InterviewConfig   `mapstructure:"interview"`
	Sponsorship *SponsorshipConfig `mapstructure:"sponsorship"`
	AI          *AIConfig          `mapstructure:"ai"`
}

type InterviewConfig struct {
	ParticipantName string `mapstructure:"participant-name"`
	EchoLatency     bool   `mapstructure:"echo-latency"`
}

type SponsorshipConfig struct {
	Required bool `mapstructure:"required"`
}

type AIConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Provider        string        `mapstructure:"provider"`
	MinimumFitScore float64       `mapstructure:"minimum-fit-score"`
	DropUnfit       bool          `mapstructure:"drop-unfit"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobdeck is a cli client for the job board: browse matched jobs, manage resumes and run AI mock interviews",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("api-url", "JOBDECK_API_URL"); err != nil {
		log.Fatalf("binding JOBDECK_API_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("token-file", "JOBDECK_TOKEN_FILE"); err != nil {
		log.Fatalf("binding JOBDECK_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobdeck.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Local development keys usually live in a .env file next to the binary.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The config file is optional; env vars and flags cover the basics.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.APIURL == "" {
		config.APIURL = viper.GetString("api-url")
	}

	return config, nil
}

func newLogger() *zap.Logger {
	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	return zl
}

// newBackendClient builds the job-board API client from config. The token is
// optional: a local backend runs unauthenticated.
func newBackendClient(ctx context.Context, zl *zap.Logger) (*jobboard.Client, *Config) {
	config, err := getConfig()
	if err != nil {
		zl.Fatal("getting a config", zap.Error(err))
	}

	token, err := resolveToken(config)
	if err != nil {
		zl.Fatal("loading api token",
			zap.Error(err),
			zap.String("hint", "set JOBDECK_TOKEN_FILE environment variable or the 'token-file' key in the configuration file"),
		)
	}

	client := jobboard.New(ctx, zl, config.APIURL, token)
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	return client, config
}

func resolveToken(config *Config) (string, error) {
	tokenFile := strings.TrimSpace(config.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("token-file"))
	}

	if tokenFile == "" {
		return "", nil
	}

	return secrets.Load(secrets.Source{
		Name: "api token",
		File: tokenFile,
	})
}
