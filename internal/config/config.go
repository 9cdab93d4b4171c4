package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	Screen         int64  `mapstructure:"screen"`
	Fps            int    `mapstructure:"fps"`
	Frames         int    `mapstructure:"frames"`
	TileSize       int    `mapstructure:"tile_size"`
	MaxFramePixels int    `mapstructure:"max_frame_pixels"`
	SnapshotDir    string `mapstructure:"snapshot_dir"`
	SnapshotEvery  int    `mapstructure:"snapshot_every"`
	SnapshotWidth  int    `mapstructure:"snapshot_width"`
	HTTPListen     string `mapstructure:"http_listen"`
	LogFormat      string `mapstructure:"log_format"`
	LogLevel       string `mapstructure:"log_level"`
	LogFile        string `mapstructure:"log_file"`
	LogMaxSizeMB   int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups  int    `mapstructure:"log_max_backups"`
}

func Default() *Config {
	return &Config{
		Screen:         -1,
		Fps:            10,
		TileSize:       32,
		MaxFramePixels: 16384 * 16384,
		SnapshotEvery:  50,
		SnapshotWidth:  640,
		LogFormat:      "text",
		LogLevel:       "info",
		LogMaxSizeMB:   20,
		LogMaxBackups:  3,
	}
}

// Load reads cfgFile, or capture.yaml from the config directory or the
// working directory when cfgFile is empty. A missing default file is not an
// error. MIRRORCAP_* environment variables override file values.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	v.SetDefault("screen", cfg.Screen)
	v.SetDefault("fps", cfg.Fps)
	v.SetDefault("frames", cfg.Frames)
	v.SetDefault("tile_size", cfg.TileSize)
	v.SetDefault("max_frame_pixels", cfg.MaxFramePixels)
	v.SetDefault("snapshot_dir", cfg.SnapshotDir)
	v.SetDefault("snapshot_every", cfg.SnapshotEvery)
	v.SetDefault("snapshot_width", cfg.SnapshotWidth)
	v.SetDefault("http_listen", cfg.HTTPListen)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("log_max_size_mb", cfg.LogMaxSizeMB)
	v.SetDefault("log_max_backups", cfg.LogMaxBackups)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("capture")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MIRRORCAP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "MirrorCapture")
	case "darwin":
		return "/Library/Application Support/MirrorCapture"
	default:
		return "/etc/mirror-capture"
	}
}
