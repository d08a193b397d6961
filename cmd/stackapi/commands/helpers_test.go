package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// setupConfig points viper at a fresh config file holding content.
// Tests using it share viper's global state and must not run in parallel.
func setupConfig(t *testing.T, content string) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	return path
}

// readConfigFile decodes the config file as written by the CLI.
func readConfigFile(t *testing.T, path string) *Config {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var config Config
	require.NoError(t, yaml.Unmarshal(data, &config))

	return &config
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
