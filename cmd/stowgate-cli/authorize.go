package main

import (
	"os"

	"github.com/spf13/cobra"
)

var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Exchange the key for an account authorization",
	Long: `Exchange the configured key for an account authorization through the
gateway and print it together with the next link (getUploadUrl).

The token is masked unless --show-secrets is given.`,
	Args: cobra.NoArgs,
	RunE: runAuthorize,
}

var uploadURLCmd = &cobra.Command{
	Use:   "upload-url",
	Short: "Fetch an upload URL and token",
	Long: `Authorize, then follow the getUploadUrl link and print the upload URL,
its token and the uploadFile link.

With --quiet only the upload URL is printed.`,
	Args: cobra.NoArgs,
	RunE: runUploadURL,
}

func init() {
	authorizeCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens in full")
	uploadURLCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens in full")
}

func runAuthorize(cmd *cobra.Command, _ []string) error {
	client, cfg, err := getClient()
	if err != nil {
		return err
	}
	if err := cfg.ValidateWithAuth(); err != nil {
		return reportError(err)
	}

	auth, err := client.Authorize(cmd.Context(), cfg.Credential())
	if err != nil {
		return reportError(err)
	}

	return getFormatter().FormatAuthorize(os.Stdout, auth, showSecrets)
}

func runUploadURL(cmd *cobra.Command, _ []string) error {
	client, cfg, err := getClient()
	if err != nil {
		return err
	}
	if err := cfg.ValidateWithAuth(); err != nil {
		return reportError(err)
	}

	auth, err := client.Authorize(cmd.Context(), cfg.Credential())
	if err != nil {
		return reportError(err)
	}

	grant, err := client.GetUploadURL(cmd.Context(), auth)
	if err != nil {
		return reportError(err)
	}

	return getFormatter().FormatUploadURL(os.Stdout, grant, showSecrets)
}
