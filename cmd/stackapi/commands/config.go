package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// serviceNames lists the services in display order.
var serviceNames = []string{
	constants.ServiceIdentity,
	constants.ServiceImage,
	constants.ServiceNetwork,
	constants.ServiceCompute,
	constants.ServiceLoadBalancer,
	constants.ServiceOrchestration,
}

// Config represents the CLI configuration.
type Config struct {
	Output    string             `json:"output,omitempty"    yaml:"output,omitempty"`
	Endpoints stackapi.Endpoints `json:"endpoints"           yaml:"endpoints"`

	Username    string `json:"username,omitempty"     yaml:"username,omitempty"`
	ProjectName string `json:"project_name,omitempty" yaml:"project_name,omitempty"`
	DomainName  string `json:"domain_name,omitempty"  yaml:"domain_name,omitempty"`
	Region      string `json:"region,omitempty"       yaml:"region,omitempty"`

	// Tokens are stored, passwords never are.
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`

	NATSURL        string `json:"nats_url,omitempty"        yaml:"nats_url,omitempty"`
	MetricsSubject string `json:"metrics_subject,omitempty" yaml:"metrics_subject,omitempty"`
}

// endpointKey is the config key of a service endpoint.
func endpointKey(service string) string {
	return "endpoints." + strings.ReplaceAll(service, "-", "_")
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage stackapi CLI configuration including service endpoints and credentials",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration. The token is masked.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config := loadConfig()
			if config.Token != "" {
				config.Token = constants.MaskedSecret
			}

			return render(cmd, config, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				rows := [][]string{
					{"Output", formatConfigValue(config.Output)},
					{"Username", formatConfigValue(config.Username)},
					{"Project", formatConfigValue(config.ProjectName)},
					{"Domain", formatConfigValue(config.DomainName)},
					{"Region", formatConfigValue(config.Region)},
					{"Token", formatConfigValue(config.Token)},
					{"Token Expires", formatTime(config.TokenExpiresAt)},
					{"NATS URL", formatConfigValue(config.NATSURL)},
				}

				for _, service := range serviceNames {
					rows = append(rows, []string{"Endpoint " + service, formatConfigValue(config.Endpoints.Lookup(service))})
				}

				return appendRows(table, rows)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Keys: output, username, project_name, domain_name,
region, nats_url, metrics_subject and endpoints.<service> where service is one of
identity, image, network, compute, load_balancer, orchestration.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd, "Set", args[0], args[1])
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			var err error
			if args[0] == "token" {
				config.Token = ""
				config.TokenExpiresAt = nil
			} else {
				err = setConfigValue(config, args[0], "")
			}

			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			return outputConfigUpdateResult(cmd, "Unset", args[0], "")
		},
	}
}

// NewLogoutCommand creates the logout command, which forgets the stored token.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config := loadConfig()
			config.Token = ""
			config.TokenExpiresAt = nil

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "output":
		config.Output = value
	case "username":
		config.Username = value
	case "project_name":
		config.ProjectName = value
	case "domain_name":
		config.DomainName = value
	case "region":
		config.Region = value
	case "nats_url":
		config.NATSURL = value
	case "metrics_subject":
		config.MetricsSubject = value
	case "token", "token_expires_at":
		return constants.ErrTokenFieldsCannotSet
	default:
		for _, service := range serviceNames {
			if key == endpointKey(service) {
				config.Endpoints.Set(service, value)

				return nil
			}
		}

		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

// loadConfig reads the configuration from viper, so flags and STACKAPI_
// environment variables override the config file.
func loadConfig() *Config {
	config := &Config{
		Output:         viper.GetString("output"),
		Username:       viper.GetString("username"),
		ProjectName:    viper.GetString("project_name"),
		DomainName:     viper.GetString("domain_name"),
		Region:         viper.GetString("region"),
		Token:          viper.GetString("token"),
		NATSURL:        viper.GetString("nats_url"),
		MetricsSubject: viper.GetString("metrics_subject"),
	}

	for _, service := range serviceNames {
		config.Endpoints.Set(service, viper.GetString(endpointKey(service)))
	}

	if viper.IsSet("token_expires_at") {
		expiresAt := viper.GetTime("token_expires_at")
		if !expiresAt.IsZero() {
			config.TokenExpiresAt = &expiresAt
		}
	}

	return config
}

// configFilePath returns the file in use, or ~/.stackapi/config.yml.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".stackapi", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Keep viper in sync for the rest of this invocation.
	viper.SetConfigFile(configFile)

	err = viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to reload config file: %w", err)
	}

	return nil
}

func outputConfigUpdateResult(cmd *cobra.Command, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	return render(cmd, result, func(table *tablewriter.Table) error {
		table.Header("Property", "Value")

		rows := [][]string{{"Action", action}, {"Key", key}}
		if value != "" {
			rows = append(rows, []string{"Value", value})
		}

		return appendRows(table, rows)
	})
}

func formatConfigValue(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func formatTime(value *time.Time) string {
	if value == nil || value.IsZero() {
		return constants.NotAvailable
	}

	return value.Format(time.RFC3339)
}
