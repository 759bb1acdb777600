package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"hassbridge/internal/config"
	"hassbridge/internal/mqttclient"
	"hassbridge/pkg/bridge"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const connectTimeout = 10 * time.Second

var (
	ping    bool
	connect bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve the configuration and optionally test connectivity",
	Example: `  # Resolve preferences and print a summary
  hassbridge check --prefs bridge.env

  # Also call the Home Assistant API and connect to the broker
  hassbridge check --prefs bridge.env --ping --connect`,
	RunE: runCheck,
}

var overridesCmd = &cobra.Command{
	Use:   "overrides DEVICE",
	Short: "Print the customization overrides for a device",
	Args:  cobra.ExactArgs(1),
	RunE:  runOverrides,
}

func init() {
	checkCmd.Flags().BoolVar(&ping, "ping", false, "Call the Home Assistant API with the configured token")
	checkCmd.Flags().BoolVar(&connect, "connect", false, "Connect to the MQTT broker")
}

// newLogger builds a console logger at the given level. Unknown levels fall
// back to info. The returned level can be changed after the fact.
func newLogger(level string) (*zap.Logger, zap.AtomicLevel, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	atom := zap.NewAtomicLevelAt(zapLevel)
	cfg := zap.Config{
		Level:            atom,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, atom, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, atom, nil
}

// loadPreferences reads the preferences file at path. A missing file is
// logged and yields empty preferences so every default applies.
func loadPreferences(path string, logger *zap.Logger) config.Preferences {
	values, err := godotenv.Read(path)
	if err != nil {
		logger.Warn("No preferences file found, using defaults",
			zap.String("path", path),
			zap.Error(err))
		return config.Preferences{}
	}
	return config.PreferencesFromStrings(values)
}

func buildConfig() (*config.Config, *zap.Logger, error) {
	logger, atom, err := newLogger(logLevel)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Build(loadPreferences(prefsPath, logger), logger)
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	if cfg.Debug {
		atom.SetLevel(zapcore.DebugLevel)
	}
	return cfg, logger, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := buildConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	writeSummary(cmd.OutOrStdout(), cfg)

	ctx := bridge.NewContext(cfg, mqttclient.NewProvider(), logger)

	if ping {
		pingCtx, cancel := context.WithTimeout(cmd.Context(), connectTimeout)
		defer cancel()

		if err := cfg.HassSession.Ping(pingCtx); err != nil {
			return err
		}
		logger.Info("Home Assistant API reachable", zap.String("url", cfg.HassURL))
	}

	if connect {
		client := mqttclient.NewClient(ctx.MQTT, cfg)
		token := client.Connect()
		if !token.WaitTimeout(connectTimeout) {
			return fmt.Errorf("timed out connecting to %s", mqttclient.BrokerURL(cfg))
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to connect to %s: %w", mqttclient.BrokerURL(cfg), err)
		}
		defer client.Disconnect(250)
		logger.Info("Connected to MQTT broker", zap.String("broker", mqttclient.BrokerURL(cfg)))
	}

	return nil
}

func runOverrides(cmd *cobra.Command, args []string) error {
	cfg, logger, err := buildConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	out, err := yaml.Marshal(cfg.OverridesFor(deviceName(args[0])))
	if err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

type deviceName string

func (d deviceName) Name() string { return string(d) }

func writeSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "MQTT broker:       %s\n", mqttclient.BrokerURL(cfg))
	fmt.Fprintf(w, "MQTT client id:    %q\n", cfg.MQTTClientID)
	fmt.Fprintf(w, "Home Assistant:    %s (validate TLS: %t)\n", cfg.HassURL, cfg.HassSSLValidate)
	fmt.Fprintf(w, "Event prefix:      %s\n", cfg.HassEventPrefix)
	fmt.Fprintf(w, "Discovery prefix:  %s\n", cfg.HassDiscoveryPrefix)
	fmt.Fprintf(w, "Battery sensors:   %t\n", cfg.CreateBatterySensors)
	fmt.Fprintf(w, "Insteon backlight: %t\n", cfg.CreateInsteonLEDBacklightLights)
	fmt.Fprintf(w, "No-comm threshold: %d minutes\n", cfg.InsteonNoCommMinutes)
	fmt.Fprintf(w, "Customized:        %d devices\n", cfg.Customizations.DeviceCount())
}
