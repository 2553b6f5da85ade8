package serverrun

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/compress"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/db"
)

const EnvPrefix = "SCANFLOW"

// Config keys, read from SCANFLOW_<KEY>.
const (
	KeyServerMode        = "SERVER_MODE"
	KeyPort              = "PORT"
	KeySocketPath        = "SOCKET_PATH"
	KeyDBPath            = "DB_PATH"
	KeyLogLevel          = "LOG_LEVEL"
	KeyLogFormat         = "LOG_FORMAT"
	KeyCompression       = "COMPRESSION"
	KeyCompressThreshold = "COMPRESS_THRESHOLD"
	KeyWSOrigins         = "WS_ORIGINS"
)

type Config struct {
	ServerMode        string
	Port              string
	SocketPath        string
	DBPath            string
	LogLevel          string
	LogFormat         string
	Compression       compress.CompressType
	CompressThreshold int
	// WSOrigins are extra host patterns allowed to open the workflow
	// websocket besides the server's own origin.
	WSOrigins []string
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are ignored; variables already set win.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// NewViper returns a viper instance bound to the SCANFLOW_ environment with
// every default set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyServerMode, api.ServerModeTCP)
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeySocketPath, api.DefaultSocketPath())
	v.SetDefault(KeyDBPath, db.MemoryPath)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, LogFormatText)
	v.SetDefault(KeyCompression, "zstd")
	v.SetDefault(KeyCompressThreshold, 4096)
	v.SetDefault(KeyWSOrigins, "")
	return v
}

// LoadConfig reads and validates the server configuration from v.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		ServerMode:        strings.ToLower(v.GetString(KeyServerMode)),
		Port:              v.GetString(KeyPort),
		SocketPath:        v.GetString(KeySocketPath),
		DBPath:            v.GetString(KeyDBPath),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         strings.ToLower(v.GetString(KeyLogFormat)),
		CompressThreshold: v.GetInt(KeyCompressThreshold),
		WSOrigins:         splitList(v.GetString(KeyWSOrigins)),
	}

	switch cfg.ServerMode {
	case api.ServerModeTCP, api.ServerModeUDS:
	default:
		return Config{}, fmt.Errorf("invalid %s_%s %q: expected %q or %q",
			EnvPrefix, KeyServerMode, cfg.ServerMode, api.ServerModeTCP, api.ServerModeUDS)
	}

	ct, err := compress.ParseType(strings.ToLower(v.GetString(KeyCompression)))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s_%s: %w", EnvPrefix, KeyCompression, err)
	}
	cfg.Compression = ct

	if cfg.CompressThreshold < 0 {
		return Config{}, fmt.Errorf("invalid %s_%s %d: must not be negative", EnvPrefix, KeyCompressThreshold, cfg.CompressThreshold)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	switch cfg.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return Config{}, fmt.Errorf("invalid %s_%s %q", EnvPrefix, KeyLogFormat, cfg.LogFormat)
	}
	return cfg, nil
}

// splitList reads a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
