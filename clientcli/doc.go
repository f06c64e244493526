// Package clientcli provides a client library for the stowgate upload gateway.
//
// The client never hard-codes gateway routes beyond the discovery document:
// it reads the root document at /api, then follows the _links each response
// advertises (authorize, getUploadUrl, uploadFile). The final upload goes
// straight to the provider's upload URL, not through the gateway.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:5001",
//		KeyID:    "your-key-id",
//		Key:      "your-application-key",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath:  "./file.txt",
//		RemotePath: "documents/file.txt",
//	})
//
// The individual steps are available too:
//
//	auth, err := client.Authorize(ctx, cfg.Credential())
//	grant, err := client.GetUploadURL(ctx, auth)
//	result, err := client.UploadFile(ctx, grant, clientcli.UploadOptions{LocalPath: "./file.txt"})
//
// # Profile Configuration
//
// Use profiles to manage multiple gateway configurations:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg, err := configFile.Resolve("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg = clientcli.MergeConfig(cfg, clientcli.ConfigFromEnv())
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
