package cmd

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/spigell/career-pilot/internal/jobsalary"
	"github.com/spigell/career-pilot/internal/serpapi"
	"github.com/spigell/career-pilot/internal/session"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "career-pilot"
)

type Config struct {
	Gemini  GeminiConfig     `mapstructure:"gemini"`
	Jobs    serpapi.Config   `mapstructure:"jobs"`
	Salary  jobsalary.Config `mapstructure:"salary"`
	Session SessionConfig    `mapstructure:"session"`
	Export  ExportConfig     `mapstructure:"export"`
	Serve   ServeConfig      `mapstructure:"serve"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

type SessionConfig struct {
	Backend     string              `mapstructure:"backend"`
	MaxSessions int                 `mapstructure:"max-sessions"`
	TTL         time.Duration       `mapstructure:"ttl"`
	Redis       session.RedisConfig `mapstructure:"redis"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-pilot is a resume-aware assistant for job search, salary lookup and career advice",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.timeout", 90*time.Second)
	viper.SetDefault("gemini.max-log-length", 200)
	viper.SetDefault("jobs.url", serpapi.DefaultURL)
	viper.SetDefault("jobs.timeout", 30*time.Second)
	viper.SetDefault("jobs.api-key-env", serpapi.DefaultAPIKeyEnv)
	viper.SetDefault("salary.url", jobsalary.DefaultURL)
	viper.SetDefault("salary.host", jobsalary.DefaultHost)
	viper.SetDefault("salary.timeout", 30*time.Second)
	viper.SetDefault("salary.api-key-env", jobsalary.DefaultAPIKeyEnv)
	viper.SetDefault("session.backend", backendMemory)
	viper.SetDefault("session.max-sessions", 1000)
	viper.SetDefault("session.ttl", 2*time.Hour)
	viper.SetDefault("session.redis.addr", "localhost:6379")
	viper.SetDefault("session.redis.lock-ttl", 5*time.Minute)
	viper.SetDefault("serve.addr", ":8080")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-pilot.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "a dotenv file with provider credentials, skipped when missing")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	// Credentials from the dotenv file never override the real environment.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("loading %s: %v", envFile, err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless it was given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
