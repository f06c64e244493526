package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate/clientcli"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	keyID       string
	key         string
	jsonOutput  bool
	quiet       bool
	showSecrets bool
)

var rootCmd = &cobra.Command{
	Use:     "stowgate-cli",
	Version: version,
	Short:   "Client for the stowgate upload gateway",
	Long: `stowgate-cli - client for the stowgate upload gateway

Every command starts from the gateway's discovery document and follows
the links it advertises:

  authorize   exchange a key for an account authorization
  upload-url  authorize, then fetch an upload URL and token
  upload      authorize, fetch an upload URL, then upload file(s)
              directly to the storage provider

Settings are merged from the profile file, STOWGATE_* environment
variables and flags, in that order.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.stowgate/config.yaml, env: STOWGATE_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (default: the default profile, env: STOWGATE_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "gateway URL (default: http://localhost:5001, env: STOWGATE_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&keyID, "key-id", "", "application key id (env: STOWGATE_KEY_ID)")
	rootCmd.PersistentFlags().StringVar(&key, "key", "", "application key (env: STOWGATE_KEY)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(authorizeCmd)
	rootCmd.AddCommand(uploadURLCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath returns the profile file path from the flag, the
// environment, or the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from the profile file, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	// 1. Load from profile file
	explicit := cfgFile != "" || clientcli.ConfigPathFromEnv() != ""
	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	if configPath := getConfigPath(); configPath != "" {
		file, err := clientcli.LoadConfigFile(configPath)
		switch {
		case err == nil:
			fromProfile, resolveErr := file.Resolve(name)
			if resolveErr != nil {
				return nil, resolveErr
			}
			configs = append(configs, fromProfile)
		case explicit || name != "":
			// Only error if the user asked for a specific file or profile
			return nil, err
		}
	}

	// 2. Load from environment variables
	configs = append(configs, clientcli.ConfigFromEnv())

	// 3. Load from flags
	configs = append(configs, &clientcli.Config{
		Endpoint: endpoint,
		KeyID:    keyID,
		Key:      key,
	})

	// Merge all configs
	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, *clientcli.Config, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, nil, err
	}

	client, err := clientcli.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// reportError prints err with the active formatter and returns it.
func reportError(err error) error {
	_ = getFormatter().FormatError(os.Stderr, err)
	return err
}
