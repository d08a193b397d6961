package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/stackapi/internal/auth"
	"github.com/fivetwenty-io/stackapi/internal/client"
	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/metricsink"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
	"github.com/fivetwenty-io/stackapi/pkg/stackclient"
)

// Session is a client plus the metrics outputs that must be flushed when the
// command ends.
type Session struct {
	*client.Client

	logger   stackapi.Logger
	conn     *nats.Conn
	registry *prometheus.Registry
	metrics  string
}

// Close flushes metrics. Errors are reported on stderr only.
func (s *Session) Close() {
	if s.conn != nil {
		err := s.conn.Drain()
		if err != nil {
			s.logger.Warn("Failed to drain NATS connection", map[string]interface{}{"error": err.Error()})
		}
	}

	if s.registry != nil && s.metrics != "" {
		err := prometheus.WriteToTextfile(s.metrics, s.registry)
		if err != nil {
			s.logger.Warn("Failed to write metrics file", map[string]interface{}{"error": err.Error(), "path": s.metrics})
		}
	}
}

// newLogger creates the CLI logger on stderr. --debug logs everything,
// --verbose logs call summaries, otherwise only warnings are shown.
func newLogger() stackapi.Logger {
	level := zerolog.WarnLevel

	switch {
	case viper.GetBool("debug"):
		level = zerolog.DebugLevel
	case viper.GetBool("verbose"):
		level = zerolog.InfoLevel
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	return stackapi.NewZerologLogger(zlog)
}

// contextOf returns the command context, which is nil when RunE is called directly.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

// requestID returns the --request-id flag or a random id.
func requestID() string {
	id := viper.GetString("request_id")
	if id != "" {
		return id
	}

	return uuid.NewString()
}

// buildLibraryConfig converts the CLI configuration into a client configuration.
func buildLibraryConfig(config *Config, logger stackapi.Logger, metrics stackapi.MetricsSink) *stackapi.Config {
	return &stackapi.Config{
		Endpoints:   stackclient.NormalizeEndpoints(config.Endpoints),
		Username:    config.Username,
		Password:    viper.GetString("password"),
		ProjectName: config.ProjectName,
		DomainName:  config.DomainName,
		Region:      config.Region,
		UserName:    config.Username,
		RequestID:   requestID(),
		HTTPTimeout: viper.GetDuration("timeout"),
		Debug:       viper.GetBool("debug"),
		Logger:      logger,
		Metrics:     metrics,
		UserAgent:   constants.DefaultUserAgent + "-cli",
	}
}

// buildSinks wires the metrics outputs selected by flags and config.
func buildSinks(session *Session, config *Config) ([]stackapi.MetricsSink, error) {
	var sinks []stackapi.MetricsSink

	if viper.GetBool("verbose") {
		sinks = append(sinks, metricsink.NewLogSink(session.logger))
	}

	if config.NATSURL != "" {
		opts := []metricsink.NATSOption{metricsink.WithNATSLogger(session.logger)}
		if config.MetricsSubject != "" {
			opts = append(opts, metricsink.WithSubject(config.MetricsSubject))
		}

		sink, conn, err := metricsink.ConnectNATS(config.NATSURL, opts...)
		if err != nil {
			return nil, err
		}

		session.conn = conn
		sinks = append(sinks, sink)
	}

	if path := viper.GetString("metrics_file"); path != "" {
		session.registry = prometheus.NewRegistry()
		session.metrics = path

		sink, err := metricsink.NewPrometheusSink(session.registry)
		if err != nil {
			return nil, err
		}

		sinks = append(sinks, sink)
	}

	return sinks, nil
}

// CreateClient creates a client from the CLI configuration. A stored
// username selects a token manager that re-issues expired tokens from
// STACKAPI_PASSWORD and persists them; otherwise the stored token is used
// as is.
func CreateClient(ctx context.Context) (*Session, error) {
	config := loadConfig()
	if config.Endpoints.Empty() {
		return nil, fmt.Errorf("%w, use 'stackapi login' first", constants.ErrNoEndpointConfigured)
	}

	session := &Session{logger: newLogger()}

	sinks, err := buildSinks(session, config)
	if err != nil {
		return nil, err
	}

	libraryConfig := buildLibraryConfig(config, session.logger, metricsink.Combine(sinks...))

	tokenManager := createTokenManager(config, libraryConfig)

	// Credentials live in the token manager; the client itself never issues tokens.
	libraryConfig.Username = ""
	libraryConfig.Password = ""

	if tokenManager == nil {
		libraryConfig.Token = config.Token
		session.Client, err = client.New(ctx, libraryConfig)
	} else {
		session.Client, err = client.NewWithTokenManager(libraryConfig, tokenManager)
	}

	if err != nil {
		session.Close()

		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return session, nil
}

func createTokenManager(config *Config, libraryConfig *stackapi.Config) auth.TokenManager {
	if config.Username == "" || libraryConfig.Endpoints.Identity == "" {
		return nil
	}

	manager := auth.NewPasswordTokenManager(client.NewIssuer(libraryConfig), auth.PasswordConfig{
		Username:    libraryConfig.Username,
		Password:    libraryConfig.Password,
		ProjectName: libraryConfig.ProjectName,
		DomainName:  libraryConfig.DomainName,
	})

	var expiry time.Time
	if config.TokenExpiresAt != nil {
		expiry = *config.TokenExpiresAt
	}

	return auth.NewConfigTokenManager(manager, NewConfigPersister(), config.Token, expiry)
}
