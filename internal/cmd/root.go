package cmd

import (
	"github.com/spf13/cobra"

	"github.com/namelens/expirywatch/internal/config"
	"github.com/namelens/expirywatch/internal/observability"
)

const binaryName = "expirywatch"

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   binaryName,
	Short: "Domain registration expiry watcher",
	Long: `expirywatch resolves registration expiry dates for a list of domains
through RDAP, an optional WHOIS fallback and an optional WhoisXML API
fallback, and serves the results to a dashboard.

Configuration comes from environment variables (DOMAINS, RDAP_BASE,
ALERT_DAYS, ...) optionally layered over a YAML file passed with --config.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file layered under environment variables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

func initLogging() {
	observability.InitCLILogger(binaryName, verbose)
}

// loadConfig loads configuration for a command. domains, when given,
// replace DOMAINS.
func loadConfig(domains []string, overrides map[string]any) (*config.Config, error) {
	return config.Load(config.Options{
		ConfigFile: cfgFile,
		Domains:    domains,
		Overrides:  overrides,
	})
}
