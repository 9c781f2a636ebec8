// Package config loads viscago settings from a TOML file, VISCA_ environment
// variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/benarent/viscago/internal/logging"
	"github.com/benarent/viscago/pkg/session"
	"github.com/benarent/viscago/pkg/transport"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VISCA_"

var durationType = reflect.TypeOf(time.Duration(0))

// Options is the flat CLI configuration. Field names map to flags
// ("TransportKind" -> "transport-kind"), toml tags to file keys and env tags
// to VISCA_ variables.
type Options struct {
	Config string

	TransportKind        string        `toml:"transport.kind" env:"TRANSPORT_KIND"`
	TransportPort        string        `toml:"transport.port" env:"TRANSPORT_PORT"`
	TransportBaud        int           `toml:"transport.baud" env:"TRANSPORT_BAUD"`
	TransportEndpoint    string        `toml:"transport.endpoint" env:"TRANSPORT_ENDPOINT"`
	TransportReadTimeout time.Duration `toml:"transport.read_timeout" env:"TRANSPORT_READ_TIMEOUT"`

	SessionSockets        int           `toml:"session.sockets" env:"SESSION_SOCKETS"`
	SessionSocketPolicy   string        `toml:"session.socket_policy" env:"SESSION_SOCKET_POLICY"`
	SessionCommandTimeout time.Duration `toml:"session.command_timeout" env:"SESSION_COMMAND_TIMEOUT"`
	SessionInquiryTimeout time.Duration `toml:"session.inquiry_timeout" env:"SESSION_INQUIRY_TIMEOUT"`
	SessionInquiryRetries int           `toml:"session.inquiry_retries" env:"SESSION_INQUIRY_RETRIES"`
	SessionCancelTimeout  time.Duration `toml:"session.cancel_timeout" env:"SESSION_CANCEL_TIMEOUT"`
	SessionAutoAddress    bool          `toml:"session.auto_address" env:"SESSION_AUTO_ADDRESS"`
	SessionCameras        []string      `toml:"session.cameras" env:"SESSION_CAMERAS"`

	MetricsListen string `toml:"metrics.listen" env:"METRICS_LISTEN"`

	LoggingLevel     string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingJournal   bool   `toml:"logging.journal" env:"LOGGING_JOURNAL"`
	LoggingSession   string `toml:"logging.session" env:"LOGGING_SESSION"`
	LoggingTransport string `toml:"logging.transport" env:"LOGGING_TRANSPORT"`
	LoggingCamera    string `toml:"logging.camera" env:"LOGGING_CAMERA"`
}

// Defaults returns the options used when nothing else is set.
func Defaults() Options {
	return Options{
		Config:                "viscago.toml",
		TransportKind:         string(transport.KindSerial),
		TransportPort:         "/dev/ttyUSB0",
		TransportBaud:         transport.DefaultBaud,
		TransportReadTimeout:  transport.DefaultReadTimeout,
		SessionSockets:        session.DefaultSockets,
		SessionSocketPolicy:   string(session.PolicyBlock),
		SessionCommandTimeout: session.DefaultCommandTimeout,
		SessionInquiryTimeout: session.DefaultInquiryTimeout,
		SessionInquiryRetries: session.DefaultInquiryRetries,
		SessionCancelTimeout:  session.DefaultCancelTimeout,
		SessionAutoAddress:    true,
		LoggingLevel:          "info",
		LoggingFormat:         "text",
	}
}

// Transport converts the options into a transport config.
func (o Options) Transport() transport.Config {
	return transport.Config{
		Kind:        transport.Kind(o.TransportKind),
		Port:        o.TransportPort,
		Baud:        o.TransportBaud,
		Endpoint:    o.TransportEndpoint,
		ReadTimeout: o.TransportReadTimeout,
	}
}

// Session converts the options into an engine config.
func (o Options) Session() session.Config {
	return session.Config{
		Sockets:        o.SessionSockets,
		SocketPolicy:   session.Policy(o.SessionSocketPolicy),
		CommandTimeout: o.SessionCommandTimeout,
		InquiryTimeout: o.SessionInquiryTimeout,
		InquiryRetries: o.SessionInquiryRetries,
		CancelTimeout:  o.SessionCancelTimeout,
	}
}

// Cameras parses the explicitly configured camera addresses.
func (o Options) Cameras() ([]int, error) {
	out := make([]int, 0, len(o.SessionCameras))
	for _, s := range o.SessionCameras {
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("camera address %q: %w", s, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Logging converts the options into a logging config.
func (o Options) Logging() logging.Config {
	modules := map[string]string{}
	for name, level := range map[string]string{
		"session":   o.LoggingSession,
		"transport": o.LoggingTransport,
		"camera":    o.LoggingCamera,
	} {
		if level != "" {
			modules[name] = level
		}
	}
	return logging.Config{
		Level:   o.LoggingLevel,
		Format:  o.LoggingFormat,
		Modules: modules,
		Journal: o.LoggingJournal,
	}
}

// LoadConfig loads configuration with proper precedence: CLI args > env vars > config file.
// If cmd is provided, flags explicitly set via CLI will not be overwritten.
// A missing config file is not an error.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changedFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changedFlags[f.Name] = true
			}
		})
	}

	var configPath string
	if f := v.FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String {
		configPath = f.String()
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			var config map[string]any
			if err := toml.Unmarshal(data, &config); err != nil {
				return fmt.Errorf("failed to parse TOML config: %w", err)
			}
			for i := 0; i < v.NumField(); i++ {
				fieldType := t.Field(i)
				if changedFlags[fieldNameToFlag(fieldType.Name)] {
					continue
				}
				tomlPath := fieldType.Tag.Get("toml")
				if tomlPath == "" {
					continue
				}
				if value := getNestedValue(config, tomlPath); value != nil {
					if err := setFieldValue(v.Field(i), value); err != nil {
						return fmt.Errorf("%s: %w", tomlPath, err)
					}
				}
			}
		case !os.IsNotExist(err):
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	for i := 0; i < v.NumField(); i++ {
		fieldType := t.Field(i)
		if changedFlags[fieldNameToFlag(fieldType.Name)] {
			continue
		}
		envKey := fieldType.Tag.Get("env")
		if envKey == "" {
			continue
		}
		if envValue := os.Getenv(EnvPrefix + envKey); envValue != "" {
			if err := setFieldValueFromString(v.Field(i), envValue); err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, envKey, err)
			}
		}
	}

	return nil
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "Config" -> "config".
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// setFieldValue stores a decoded TOML value. Durations are written as
// strings ("250ms") in the file.
func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}

	if field.Type() == durationType {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("duration must be a string like \"3s\", got %T", value)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int:
		switch i := value.(type) {
		case int64:
			field.SetInt(i)
		case int:
			field.SetInt(int64(i))
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		arr, ok := value.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
		slice := make([]string, len(arr))
		for i, v := range arr {
			slice[i] = fmt.Sprint(v)
		}
		field.Set(reflect.ValueOf(slice))
	}
	return nil
}

// setFieldValueFromString sets a field value from string (for env vars).
func setFieldValueFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			slice := make([]string, len(parts))
			for i, part := range parts {
				slice[i] = strings.TrimSpace(part)
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
	return nil
}
