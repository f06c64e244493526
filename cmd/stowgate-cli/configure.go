package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/clientcli"
)

const gatewayCheckTimeout = 5 * time.Second

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage gateway profiles",
	Long: `Manage gateway profiles in the configuration file.

A profile stores a gateway endpoint and an application key. Pick one with
--profile or STOWGATE_PROFILE; without either the default profile is used.

Profiles live in ~/.stowgate/config.yaml unless --config or STOWGATE_CONFIG
points elsewhere.`,
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles, marking the default with *",
		Args:  cobra.NoArgs,
		RunE:  runConfigureList,
	}
	listCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print keys in full")

	showCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show one profile (the default when no name is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigureShow,
	}
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print keys in full")

	configureCmd.AddCommand(
		listCmd,
		showCmd,
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create or update a profile interactively",
			Long: `Prompt for the gateway endpoint, key id and application key, then save
the profile. The endpoint is checked for a discovery document first; a
failed check asks before saving anyway.`,
			Args: cobra.ExactArgs(1),
			RunE: runConfigureAdd,
		},
		&cobra.Command{
			Use:     "remove <name>",
			Aliases: []string{"rm"},
			Short:   "Remove a profile",
			Args:    cobra.ExactArgs(1),
			RunE:    runConfigureRemove,
		},
		&cobra.Command{
			Use:   "set-default <name>",
			Short: "Make a profile the default",
			Args:  cobra.ExactArgs(1),
			RunE:  runConfigureSetDefault,
		},
	)
}

// loadProfiles reads the profile file. A missing file yields an empty set
// when allowMissing is true.
func loadProfiles(allowMissing bool) (*clientcli.ConfigFile, string, error) {
	path := getConfigPath()
	file, err := clientcli.LoadConfigFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return &clientcli.ConfigFile{}, path, nil
		}
		return nil, path, fmt.Errorf("load profiles: %w", err)
	}
	return file, path, nil
}

// editProfiles loads the profile file, applies edit and saves the result.
func editProfiles(edit func(*clientcli.ConfigFile) error) error {
	file, path, err := loadProfiles(false)
	if err != nil {
		return err
	}
	if err := edit(file); err != nil {
		return err
	}
	if err := file.Save(path); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}

func runConfigureList(_ *cobra.Command, _ []string) error {
	file, _, err := loadProfiles(true)
	if err != nil {
		return err
	}
	if len(file.Profiles) == 0 {
		fmt.Println("No profiles yet. Create one with 'stowgate-cli configure add <name>'.")
		return nil
	}

	defaultName := ""
	if p, err := file.GetDefaultProfile(); err == nil {
		defaultName = p.Name
	}

	return getFormatter().FormatProfileList(os.Stdout, file.Profiles, defaultName, showSecrets)
}

func runConfigureShow(_ *cobra.Command, args []string) error {
	file, _, err := loadProfiles(false)
	if err != nil {
		return err
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	p, err := file.GetProfile(name)
	if err != nil {
		return err
	}

	isDefault := name == ""
	if d, err := file.GetDefaultProfile(); err == nil && d.Name == p.Name {
		isDefault = true
	}

	return getFormatter().FormatProfileShow(os.Stdout, *p, isDefault, showSecrets)
}

func runConfigureAdd(_ *cobra.Command, args []string) error {
	name := args[0]

	file, path, err := loadProfiles(true)
	if err != nil {
		return err
	}

	existing, _ := file.GetProfile(name)
	if existing != nil && !confirm(fmt.Sprintf("Profile '%s' exists. Overwrite", name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	profile, err := promptProfile(name, existing, len(file.Profiles) == 0)
	if err != nil {
		return handlePromptError(err)
	}

	fmt.Print("Checking gateway... ")
	if err := checkGateway(profile.Endpoint); err != nil {
		fmt.Println("FAILED")
		fmt.Printf("Warning: %v\n", err)
		if !confirm("Save profile anyway") {
			fmt.Println("Cancelled.")
			return nil
		}
	} else {
		fmt.Println("OK")
	}

	if existing != nil {
		err = file.UpdateProfile(profile)
	} else {
		err = file.AddProfile(profile)
	}
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if profile.Default {
		if err := file.SetDefault(name); err != nil {
			return err
		}
	}
	if err := file.Save(path); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}

	fmt.Printf("Profile '%s' saved to %s.\n", name, path)
	if profile.Default {
		fmt.Println("It is now the default profile.")
	}
	return nil
}

func runConfigureRemove(_ *cobra.Command, args []string) error {
	name := args[0]
	err := editProfiles(func(file *clientcli.ConfigFile) error {
		if _, err := file.GetProfile(name); err != nil {
			return err
		}
		if !confirm(fmt.Sprintf("Remove profile '%s'", name)) {
			return errCancelled
		}
		return file.RemoveProfile(name)
	})
	if errors.Is(err, errCancelled) {
		fmt.Println("Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(_ *cobra.Command, args []string) error {
	name := args[0]
	return editProfiles(func(file *clientcli.ConfigFile) error {
		if err := file.SetDefault(name); err != nil {
			return err
		}
		fmt.Printf("Default profile is now '%s'.\n", name)
		return nil
	})
}

// promptProfile asks for the profile fields, offering the existing values
// as defaults. The first profile in a file always becomes the default.
func promptProfile(name string, existing *clientcli.Profile, first bool) (clientcli.Profile, error) {
	current := clientcli.Profile{Endpoint: clientcli.DefaultEndpoint}
	if existing != nil {
		current = *existing
	}

	endpointVal, err := (&promptui.Prompt{
		Label:    "Gateway endpoint",
		Default:  current.Endpoint,
		Validate: validateEndpoint,
	}).Run()
	if err != nil {
		return clientcli.Profile{}, err
	}

	keyIDVal, err := (&promptui.Prompt{
		Label:   "Key ID",
		Default: current.KeyID,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("key id is required")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return clientcli.Profile{}, err
	}

	keyVal, err := (&promptui.Prompt{
		Label: "Application Key",
		Mask:  '*',
	}).Run()
	if err != nil {
		return clientcli.Profile{}, err
	}
	if keyVal == "" {
		keyVal = current.Key
	}

	isDefault := first || current.Default
	if !isDefault {
		isDefault = confirm("Make this the default profile")
	}

	return clientcli.Profile{
		Name:     name,
		Endpoint: strings.TrimSuffix(strings.TrimSpace(endpointVal), "/"),
		KeyID:    strings.TrimSpace(keyIDVal),
		Key:      keyVal,
		Default:  isDefault,
	}, nil
}

func validateEndpoint(input string) error {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// checkGateway confirms endpointURL serves a discovery document that
// advertises the authorize link.
func checkGateway(endpointURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), gatewayCheckTimeout)
	defer cancel()

	client, err := clientcli.New(&clientcli.Config{Endpoint: endpointURL}, clientcli.WithTimeout(gatewayCheckTimeout))
	if err != nil {
		return err
	}

	links, err := client.Discover(ctx)
	if err != nil {
		return fmt.Errorf("could not reach gateway: %w", err)
	}
	if _, ok := links.Get(stowgate.RelAuthorize); !ok {
		return errors.New("endpoint does not advertise an authorize link")
	}
	return nil
}

var errCancelled = errors.New("cancelled")

func confirm(label string) bool {
	_, err := (&promptui.Prompt{Label: label, IsConfirm: true}).Run()
	return err == nil
}

// handlePromptError turns an aborted prompt into a clean exit.
func handlePromptError(err error) error {
	switch {
	case errors.Is(err, promptui.ErrInterrupt):
		fmt.Println("\nCancelled.")
		os.Exit(0)
	case errors.Is(err, promptui.ErrAbort):
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
