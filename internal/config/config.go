// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int `mapstructure:"port"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Vault struct {
		// Path is the active vault this server manages directly.
		Path string `mapstructure:"path"`
		// InstallToActive controls whether installs target the active vault.
		InstallToActive bool `mapstructure:"install_to_active"`
		// ExtraPaths are additional vault directories that receive every install.
		ExtraPaths []string `mapstructure:"extra_paths"`
		// ParentPaths are directories whose child vaults are auto-discovered.
		ParentPaths []string `mapstructure:"parent_paths"`
	} `mapstructure:"vault"`
	GitHub struct {
		// Token is an optional bearer token, treated as an opaque value.
		Token  string `mapstructure:"token"`
		APIURL string `mapstructure:"api_url"`
		RawURL string `mapstructure:"raw_url"`
	} `mapstructure:"github"`
	Archive struct {
		URL string `mapstructure:"url"`
		// RefreshInterval is the directory cache refresh period in minutes.
		RefreshInterval int `mapstructure:"refresh_interval"`
	} `mapstructure:"archive"`
	Forum struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"forum"`
	// UpdateCheckInterval is the scheduled update check period in minutes.
	// Zero disables the scheduled check.
	UpdateCheckInterval int `mapstructure:"update_check_interval"`
	// AppVersion is the host application version used for minAppVersion
	// compatibility checks. Empty skips the check.
	AppVersion string `mapstructure:"app_version"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "PLUGVAULT_"
	// prefix. e.g., PLUGVAULT_GITHUB_TOKEN overrides the `github.token` key.
	viper.SetEnvPrefix("PLUGVAULT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8080)
	viper.SetDefault("database.path", "./plugvault.db")
	viper.SetDefault("vault.path", "./vault")
	viper.SetDefault("vault.install_to_active", true)
	viper.SetDefault("github.api_url", "https://api.github.com")
	viper.SetDefault("github.raw_url", "https://raw.githubusercontent.com")
	viper.SetDefault("archive.url", "https://raw.githubusercontent.com/obsidianmd/obsidian-releases/HEAD/community-plugins.json")
	viper.SetDefault("archive.refresh_interval", 360)
	viper.SetDefault("forum.url", "https://forum.obsidian.md")
	viper.SetDefault("update_check_interval", 0)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
