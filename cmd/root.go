// Package cmd implements the command-line interface of the crawler console.
// It provides the root command, configuration loading and the subcommands
// that work on a collection's website list.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	"github.com/jonesrussell/north-cloud/crawler-console/cmd/configcmd"
	"github.com/jonesrussell/north-cloud/crawler-console/cmd/console"
	cmdqueue "github.com/jonesrussell/north-cloud/crawler-console/cmd/queue"
	cmdsearch "github.com/jonesrussell/north-cloud/crawler-console/cmd/search"
	"github.com/jonesrussell/north-cloud/crawler-console/cmd/websites"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/config"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug logging for all commands.
	Debug bool

	rootCmd = &cobra.Command{
		Use:   "crawler-console",
		Short: "Manage a collection's website list on the crawler backend",
		Long: `crawler-console adds URLs to a collection, triggers and queues scrapes,
searches the web for new URLs and previews what a scrape produced.

Run "crawler-console console" for the interactive two-pane console.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()

	// Flags are parsed early so --config and --debug apply to initConfig.
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "",
		"config file (default is ./config.yaml or ~/.crawler-console/config.yaml)")
	flags.BoolVar(&Debug, "debug", false, "enable debug logging")
	flags.String("backend-url", "", "crawler backend base URL")
	flags.String("token", "", "access token sent as x-access-token")
	flags.String("collection", "", "collection id")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crawler-console version %s\n", Version)
		},
	})

	rootCmd.AddCommand(
		websites.Command(common.NewCommandDeps),
		cmdsearch.Command(common.NewCommandDeps),
		cmdqueue.Command(common.NewCommandDeps),
		console.Command(common.NewCommandDeps),
		configcmd.Command(),
	)
}

// initConfig reads the config file and environment variables.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".crawler-console"))
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional unless named explicitly.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindCommandLineFlags(); err != nil {
		return err
	}
	if err := bindAppEnvVars(); err != nil {
		return err
	}

	if Debug || viper.GetBool("debug") {
		viper.Set("debug", true)
		viper.Set("logging.level", "debug")
	}
	return nil
}

// bindCommandLineFlags binds persistent flags to config keys.
func bindCommandLineFlags() error {
	bindings := map[string]string{
		"debug":         "debug",
		"backend.url":   "backend-url",
		"auth.token":    "token",
		"collection.id": "collection",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind %s flag: %w", flag, err)
		}
	}
	return nil
}

// bindAppEnvVars maps environment variables to config keys.
func bindAppEnvVars() error {
	bindings := []struct {
		key  string
		envs []string
	}{
		{"backend.url", []string{"CRAWLER_BACKEND_URL"}},
		{"backend.timeout", []string{"CRAWLER_BACKEND_TIMEOUT"}},
		{"auth.token", []string{"CRAWLER_TOKEN"}},
		{"auth.jwt_secret", []string{"CRAWLER_JWT_SECRET", "AUTH_JWT_SECRET"}},
		{"collection.id", []string{"CRAWLER_COLLECTION_ID"}},
		{"collection.page_size", []string{"CRAWLER_PAGE_SIZE"}},
		{"queue.poll_interval", []string{"CRAWLER_POLL_INTERVAL"}},
		{"logging.level", []string{"LOG_LEVEL"}},
		{"logging.format", []string{"LOG_FORMAT"}},
		{"debug", []string{"APP_DEBUG"}},
	}
	for _, b := range bindings {
		args := append([]string{b.key}, b.envs...)
		if err := viper.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b.envs[0], err)
		}
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("backend.url", config.DefaultBackendURL)
	viper.SetDefault("backend.timeout", config.DefaultBackendTimeout)
	viper.SetDefault("auth.subject", config.DefaultSubject)
	viper.SetDefault("collection.page_size", config.DefaultPageSize)
	viper.SetDefault("queue.poll_interval", config.DefaultPollInterval)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_paths", []string{"stderr"})
	viper.SetDefault("debug", false)
}
