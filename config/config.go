package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openlovable/lovable/dev_server"
	"github.com/openlovable/lovable/providers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config represents the structure of the configuration file
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	LogLevel         string                      `mapstructure:"log_level"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
	Sandbox          SandboxConfig               `mapstructure:"sandbox"`
	DevServer        DevServerConfig             `mapstructure:"dev_server"`
	Server           ServerConfig                `mapstructure:"server"`

	// ConfigFile is the file the values were read from, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

type SandboxConfig struct {
	Root        string `mapstructure:"root"`
	ProjectName string `mapstructure:"project_name"`
}

type DevServerConfig struct {
	PackageManager string        `mapstructure:"package_manager"`
	Node           string        `mapstructure:"node"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	PortRetries    int           `mapstructure:"port_retries"`
	StopTimeout    time.Duration `mapstructure:"stop_timeout"`
	ExtraPath      []string      `mapstructure:"extra_path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

const configName = "lovable-config"

var defaultTemperature float32 = 0.2

// DefaultConfig values
var DefaultConfig = Config{
	Version:  "0.3.0",
	Theme:    "dracula",
	LogLevel: "warn",
	AIProviderConfig: &providers.AIProviderConfig{
		Provider:    "openai",
		BaseURL:     "",
		Model:       "",
		Temperature: &defaultTemperature,
		ApiKey:      "",
		ApiVersion:  "",
	},
	Sandbox: SandboxConfig{
		Root:        filepath.Join(os.TempDir(), "lovable"),
		ProjectName: "lovable-react-app",
	},
	DevServer: DevServerConfig{
		PackageManager: dev_server.DefaultSupervisorConfig.PackageManager,
		Node:           "node",
		Host:           dev_server.DefaultSupervisorConfig.Host,
		Port:           dev_server.DefaultSupervisorConfig.Port,
		PortRetries:    dev_server.DefaultSupervisorConfig.PortRetries,
		StopTimeout:    dev_server.DefaultSupervisorConfig.StopTimeout,
	},
	Server: ServerConfig{
		Addr: "127.0.0.1:8787",
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment
// variables. Flags win over environment, environment over the file.
func LoadConfigs(cmd *cobra.Command, cwd string) (*Config, error) {
	var config *Config

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	} else {
		// Look for lovable-config.{yaml,yml,json} in the working directory
		viper.SetConfigName(configName)
		viper.AddConfigPath(cwd)
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	if cmd != nil {
		bindFlags(cmd)
	}

	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	config.ConfigFile = viper.ConfigFileUsed()

	if config.AIProviderConfig == nil {
		config.AIProviderConfig = &providers.AIProviderConfig{Provider: DefaultConfig.AIProviderConfig.Provider}
	}
	return config, nil
}

// SupervisorConfig converts the dev_server section for the supervisor.
func (c *Config) SupervisorConfig() dev_server.SupervisorConfig {
	return dev_server.SupervisorConfig{
		PackageManager: c.DevServer.PackageManager,
		Host:           c.DevServer.Host,
		Port:           c.DevServer.Port,
		PortRetries:    c.DevServer.PortRetries,
		StopTimeout:    c.DevServer.StopTimeout,
	}
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("log_level", DefaultConfig.LogLevel)
	viper.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	viper.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	viper.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	viper.SetDefault("ai_provider_config.temperature", *DefaultConfig.AIProviderConfig.Temperature)
	viper.SetDefault("ai_provider_config.max_tokens", DefaultConfig.AIProviderConfig.MaxTokens)
	viper.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
	viper.SetDefault("ai_provider_config.api_version", DefaultConfig.AIProviderConfig.ApiVersion)
	viper.SetDefault("sandbox.root", DefaultConfig.Sandbox.Root)
	viper.SetDefault("sandbox.project_name", DefaultConfig.Sandbox.ProjectName)
	viper.SetDefault("dev_server.package_manager", DefaultConfig.DevServer.PackageManager)
	viper.SetDefault("dev_server.node", DefaultConfig.DevServer.Node)
	viper.SetDefault("dev_server.host", DefaultConfig.DevServer.Host)
	viper.SetDefault("dev_server.port", DefaultConfig.DevServer.Port)
	viper.SetDefault("dev_server.port_retries", DefaultConfig.DevServer.PortRetries)
	viper.SetDefault("dev_server.stop_timeout", DefaultConfig.DevServer.StopTimeout)
	viper.SetDefault("dev_server.extra_path", []string{})
	viper.SetDefault("server.addr", DefaultConfig.Server.Addr)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("ai_provider_config.provider", "PROVIDER")
	_ = viper.BindEnv("ai_provider_config.base_url", "BASE_URL")
	_ = viper.BindEnv("ai_provider_config.model", "MODEL")
	_ = viper.BindEnv("ai_provider_config.temperature", "TEMPERATURE")
	_ = viper.BindEnv("ai_provider_config.max_tokens", "MAX_TOKENS")
	_ = viper.BindEnv("ai_provider_config.api_key", "API_KEY")
	_ = viper.BindEnv("ai_provider_config.api_version", "API_VERSION")
	_ = viper.BindEnv("sandbox.root", "SANDBOX_ROOT")
	_ = viper.BindEnv("sandbox.project_name", "PROJECT_NAME")
	_ = viper.BindEnv("dev_server.package_manager", "PACKAGE_MANAGER")
	_ = viper.BindEnv("dev_server.host", "DEV_SERVER_HOST")
	_ = viper.BindEnv("dev_server.port", "DEV_SERVER_PORT")
	_ = viper.BindEnv("dev_server.extra_path", "EXTRA_PATH")
	_ = viper.BindEnv("server.addr", "SERVER_ADDR")
}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"theme":           "theme",
	"log_level":       "log_level",
	"provider":        "ai_provider_config.provider",
	"base_url":        "ai_provider_config.base_url",
	"model":           "ai_provider_config.model",
	"temperature":     "ai_provider_config.temperature",
	"max_tokens":      "ai_provider_config.max_tokens",
	"api_key":         "ai_provider_config.api_key",
	"api_version":     "ai_provider_config.api_version",
	"sandbox_root":    "sandbox.root",
	"project_name":    "sandbox.project_name",
	"package_manager": "dev_server.package_manager",
	"port":            "dev_server.port",
	"host":            "dev_server.host",
	"extra_path":      "dev_server.extra_path",
	"addr":            "server.addr",
}

// bindFlags binds the CLI flags of cmd, inherited ones included, to
// configuration values. Flags a command does not define are skipped.
func bindFlags(cmd *cobra.Command) {
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set the chroma theme used to highlight generated files (e.g., 'dracula', 'monokai').")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "Set the log level: 'debug', 'info', 'warn', 'error' or 'disabled'.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	// AI Provider configuration
	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, fmt.Sprintf("The name of the AI provider (%s).", strings.Join(providers.SupportedProviders(), ", ")))
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of AI Provider. Empty uses the provider's default.")
	rootCmd.PersistentFlags().String("model", DefaultConfig.AIProviderConfig.Model, "The name of the model used for generation. Empty uses the provider's default.")
	rootCmd.PersistentFlags().Float32("temperature", *DefaultConfig.AIProviderConfig.Temperature, "Adjusts the AI model's creativity (0-1).")
	rootCmd.PersistentFlags().Int("max_tokens", 0, "Maximum tokens per response. Zero uses the provider's default.")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.AIProviderConfig.ApiKey, "The API key used to authenticate with the AI service provider.")
	rootCmd.PersistentFlags().String("api_version", DefaultConfig.AIProviderConfig.ApiVersion, "The API version sent to the AI service provider.")

	// Sandbox and dev server configuration
	rootCmd.PersistentFlags().String("sandbox_root", DefaultConfig.Sandbox.Root, "Directory under which generated projects are created.")
	rootCmd.PersistentFlags().String("project_name", DefaultConfig.Sandbox.ProjectName, "Name of the starter project.")
	rootCmd.PersistentFlags().String("package_manager", DefaultConfig.DevServer.PackageManager, "Package manager used to install dependencies and run the dev server.")
	rootCmd.PersistentFlags().Int("port", DefaultConfig.DevServer.Port, "First port tried for the dev server.")
	rootCmd.PersistentFlags().String("host", DefaultConfig.DevServer.Host, "Host the dev server binds to.")
	rootCmd.PersistentFlags().StringSlice("extra_path", nil, "Extra directories prepended to PATH when running the toolchain.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}
