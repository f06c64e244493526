package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate/clientcli"
)

var (
	uploadRecursive   bool
	uploadContentType string
	uploadInfo        []string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [remote-name]",
	Short: "Upload files through the gateway",
	Long: `Authorize, fetch an upload URL, then upload directly to the storage
provider. The remote name defaults to the cleaned local path.

Examples:
  stowgate-cli upload ./file.txt
  stowgate-cli upload ./file.txt docs/file.txt
  stowgate-cli upload -r ./images/ media/images/
  stowgate-cli upload --info author=alice --content-type application/json ./data config.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type (default: "+clientcli.DefaultContentType+")")
	uploadCmd.Flags().StringArrayVar(&uploadInfo, "info", nil, "custom file info as key=value (repeatable)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	opts := clientcli.UploadOptions{
		LocalPath:   args[0],
		ContentType: uploadContentType,
		Recursive:   uploadRecursive,
	}
	if len(args) > 1 {
		opts.RemotePath = args[1]
	}

	info, err := parseInfo(uploadInfo)
	if err != nil {
		return err
	}
	opts.Info = info

	client, _, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		return reportError(err)
	}

	formatter := getFormatter()
	if err := formatter.FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	// Check for any errors in results
	for i := range results {
		if results[i].Err != nil {
			return results[i].Err
		}
	}

	return nil
}

func parseInfo(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	info := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --info %q, want key=value", pair)
		}
		info[k] = v
	}
	return info, nil
}
