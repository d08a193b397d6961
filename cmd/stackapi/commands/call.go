package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	internalhttp "github.com/fivetwenty-io/stackapi/internal/http"
)

// callResult is the output of the call command.
type callResult struct {
	Method     string      `json:"method"      yaml:"method"`
	URL        string      `json:"url"         yaml:"url"`
	StatusCode int         `json:"status_code" yaml:"status_code"`
	ElapsedMS  int64       `json:"elapsed_ms"  yaml:"elapsed_ms"`
	Body       interface{} `json:"body"        yaml:"body"`
}

// NewCallCommand creates the call command, which sends an arbitrary request
// through the same pipeline as the service clients.
func NewCallCommand() *cobra.Command {
	var (
		require   string
		data      string
		operation string
		anyStatus bool
		headers   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "call METHOD SERVICE PATH",
		Short: "Send a request to a service",
		Long: `Send a request to a configured service and print the response.

The call fails on non-2xx statuses unless --any-status is given, and when
--require names a dotted path missing from the JSON response.`,
		Example: `  stackapi call GET compute /servers --require servers
  stackapi call POST load-balancer /v2/lbaas/pools --data '{"pool":{"protocol":"HTTP"}}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			service := args[1]

			req := &internalhttp.Request{
				Method:       method,
				Path:         args[2],
				Headers:      headers,
				RequiredPath: require,
				Require2xx:   !anyStatus,
				Operation:    operation,
			}

			if req.Operation == "" {
				req.Operation = constants.OperationPrefix + "." + service + ".raw." + strings.ToLower(method)
			}

			if data != "" {
				if !json.Valid([]byte(data)) {
					return constants.ErrInvalidJSONBody
				}

				req.Body = []byte(data)
			}

			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			httpClient, err := session.Raw(service)
			if err != nil {
				return err
			}

			resp, err := httpClient.Call(contextOf(cmd), req)
			if err != nil {
				return fmt.Errorf("call failed: %w", err)
			}

			result := callResult{
				Method:     resp.Method,
				URL:        resp.URL,
				StatusCode: resp.StatusCode,
				ElapsedMS:  resp.Elapsed.Milliseconds(),
				Body:       resp.Data,
			}

			return render(cmd, result, func(table *tablewriter.Table) error {
				body, err := json.MarshalIndent(resp.Data, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format response body: %w", err)
				}

				table.Header("Property", "Value")

				return appendRows(table, [][]string{
					{"Request", resp.Method + " " + resp.URL},
					{"Status", strconv.Itoa(resp.StatusCode)},
					{"Elapsed", resp.Elapsed.String()},
					{"Body", string(body)},
				})
			})
		},
	}

	cmd.Flags().StringVar(&require, "require", "", "dotted path that must be present in the response")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringVar(&operation, "operation", "", "operation name reported to metrics sinks")
	cmd.Flags().BoolVar(&anyStatus, "any-status", false, "accept non-2xx responses")
	cmd.Flags().StringToStringVarP(&headers, "header", "H", nil, "extra header as name=value, repeatable")

	return cmd
}
