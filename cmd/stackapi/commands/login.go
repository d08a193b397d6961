package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/stackapi/internal/auth"
	"github.com/fivetwenty-io/stackapi/internal/client"
	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
	"github.com/fivetwenty-io/stackapi/pkg/stackclient"
)

type loginOptions struct {
	identity string
	username string
	password string
	project  string
	domain   string
	region   string
}

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the identity service",
		Long: `Issue a token with username and password, discover the service endpoints
from the catalog and store both in the configuration. The password is never stored.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.identity, "identity", "", "identity endpoint URL")
	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&opts.project, "project", "", "project to scope the token to")
	cmd.Flags().StringVar(&opts.domain, "domain", "", "user and project domain (default \"Default\")")
	cmd.Flags().StringVar(&opts.region, "region", "", "region of the discovered endpoints")

	return cmd
}

func prompt(label string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(label)

	value, _ := reader.ReadString('\n')

	return strings.TrimSpace(value)
}

// fillLoginOptions completes the options from the configuration and prompts.
func fillLoginOptions(opts *loginOptions, config *Config) error {
	if opts.identity == "" {
		opts.identity = config.Endpoints.Identity
	}

	if opts.identity == "" {
		opts.identity = prompt("Identity endpoint: ")
	}

	if opts.identity == "" {
		return fmt.Errorf("%w: identity", constants.ErrNoEndpointConfigured)
	}

	if opts.username == "" {
		opts.username = config.Username
	}

	if opts.username == "" {
		opts.username = prompt("Username: ")
	}

	if opts.password == "" {
		fmt.Print("Password: ")

		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Println()

		opts.password = string(password)
	}

	if opts.project == "" {
		opts.project = config.ProjectName
	}

	if opts.domain == "" {
		opts.domain = config.DomainName
	}

	if opts.region == "" {
		opts.region = config.Region
	}

	return nil
}

func runLogin(cmd *cobra.Command, opts *loginOptions) error {
	ctx := contextOf(cmd)
	config := loadConfig()

	err := fillLoginOptions(opts, config)
	if err != nil {
		return err
	}

	// Store everything but the token first, the persister adds the token.
	config.Endpoints.Identity = stackclient.NormalizeEndpoint(opts.identity)
	config.Username = opts.username
	config.ProjectName = opts.project
	config.DomainName = opts.domain
	config.Region = opts.region
	config.Token = ""
	config.TokenExpiresAt = nil

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logger := newLogger()
	libraryConfig := &stackapi.Config{
		Endpoints:   stackclient.NormalizeEndpoints(config.Endpoints),
		ProjectName: opts.project,
		DomainName:  opts.domain,
		Region:      opts.region,
		UserName:    opts.username,
		RequestID:   requestID(),
		Debug:       viper.GetBool("debug"),
		Logger:      logger,
		UserAgent:   constants.DefaultUserAgent + "-cli",
	}

	manager := auth.NewPasswordTokenManager(client.NewIssuer(libraryConfig), auth.PasswordConfig{
		Username:    opts.username,
		Password:    opts.password,
		ProjectName: opts.project,
		DomainName:  opts.domain,
	})
	tokenManager := auth.NewConfigTokenManager(manager, NewConfigPersister(), "", time.Time{})

	session, err := client.NewWithTokenManager(libraryConfig, tokenManager)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	// Reading the catalog issues and persists the token.
	catalog, err := session.Identity().Catalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}

	config = loadConfig()
	config.Endpoints = stackclient.EndpointsFromCatalog(catalog, config.Endpoints, opts.region)

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	return render(cmd, config.Endpoints, func(table *tablewriter.Table) error {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s, token valid until %s\n",
			opts.username, tokenManager.GetTokenExpiry().Format("2006-01-02 15:04:05 MST"))

		table.Header("Service", "Endpoint", "")

		rows := make([][]string, 0, len(serviceNames))
		for _, service := range serviceNames {
			endpoint := config.Endpoints.Lookup(service)

			marker := ""
			if endpoint != "" {
				marker = constants.CheckMarkSymbol
			}

			rows = append(rows, []string{service, valueOrNA(endpoint), marker})
		}

		return appendRows(table, rows)
	})
}
