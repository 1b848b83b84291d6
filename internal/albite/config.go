package albite

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dumbledore/AlbiteRTSP/pkg/rtp"
	"github.com/dumbledore/AlbiteRTSP/pkg/rtsp"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no -config flag is given
var DefaultConfigPath = filepath.Join("configs", "default.yaml")

type Config struct {
	RTSP    RTSPConfig    `yaml:"rtsp" toml:"rtsp"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Media   MediaConfig   `yaml:"media" toml:"media"`
}

type RTSPConfig struct {
	Host          string        `yaml:"host" toml:"host"`
	Port          int           `yaml:"port" toml:"port"`
	AcceptTimeout time.Duration `yaml:"accept_timeout" toml:"accept_timeout"`
	ReadTimeout   time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	CloseDelay    time.Duration `yaml:"close_delay" toml:"close_delay"`
	ServerName    string        `yaml:"server_name" toml:"server_name"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

type MediaConfig struct {
	File           string        `yaml:"file" toml:"file"`
	SessionName    string        `yaml:"session_name" toml:"session_name"`
	PayloadType    uint8         `yaml:"payload_type" toml:"payload_type"`
	ClockRate      uint32        `yaml:"clock_rate" toml:"clock_rate"`
	Destination    string        `yaml:"destination" toml:"destination"`
	ServerRTPPort  int           `yaml:"server_rtp_port" toml:"server_rtp_port"`
	PacketSize     int           `yaml:"packet_size" toml:"packet_size"`
	PacketInterval time.Duration `yaml:"packet_interval" toml:"packet_interval"`
	ReportInterval time.Duration `yaml:"report_interval" toml:"report_interval"`
}

// DefaultConfig returns the configuration used for keys missing from the file
func DefaultConfig() *Config {
	return &Config{
		RTSP: RTSPConfig{
			Port:          rtsp.DefaultPort,
			AcceptTimeout: rtsp.DefaultAcceptTimeout,
			ReadTimeout:   rtsp.DefaultReadTimeout,
			CloseDelay:    rtsp.DefaultCloseDelay,
			ServerName:    "Albite RTSP Server",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Media: MediaConfig{
			SessionName:    "Albite Stream",
			PayloadType:    rtp.PayloadTypeMP2T,
			ClockRate:      rtp.DefaultClockRate,
			Destination:    "127.0.0.1",
			PacketSize:     7 * 188, // 7 MPEG-TS packets
			PacketInterval: 2 * time.Millisecond,
			ReportInterval: 5 * time.Second,
		},
	}
}

// LoadConfig loads configuration from a yaml or toml file
func LoadConfig(configPath string) (*Config, error) {
	// 파일 존재 확인
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	// 파일 읽기
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".toml":
		_, err = toml.Decode(string(data), config)
	default:
		return nil, fmt.Errorf("unsupported config file type: %s", configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// 기본값 설정 및 검증
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	// RTSP 포트 검증 (0은 임의 포트)
	if c.RTSP.Port < 0 || c.RTSP.Port > 65535 {
		return fmt.Errorf("invalid rtsp port: %d (must be between 0-65535)", c.RTSP.Port)
	}

	if c.RTSP.AcceptTimeout < 0 || c.RTSP.ReadTimeout < 0 {
		return fmt.Errorf("invalid rtsp timeouts: accept=%s read=%s (must be non-negative)", c.RTSP.AcceptTimeout, c.RTSP.ReadTimeout)
	}

	// 로그 레벨 검증
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, level := range validLevels {
		if strings.ToLower(c.Logging.Level) == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("invalid log level: %s (must be one of: %v)", c.Logging.Level, validLevels)
	}

	// 미디어 설정 검증
	if c.Media.File == "" {
		return fmt.Errorf("media file is required")
	}

	if c.Media.PayloadType > 127 {
		return fmt.Errorf("invalid payload_type: %d (must be between 0-127)", c.Media.PayloadType)
	}

	if c.Media.ClockRate == 0 {
		return fmt.Errorf("invalid clock_rate: must be positive")
	}

	if c.Media.ServerRTPPort < 0 || c.Media.ServerRTPPort > 65534 {
		return fmt.Errorf("invalid server_rtp_port: %d (must be between 0-65534)", c.Media.ServerRTPPort)
	}

	if c.Media.PacketSize <= 0 || c.Media.PacketSize > rtp.MaxRTPPacketSize-12 {
		return fmt.Errorf("invalid packet_size: %d (must be between 1-%d)", c.Media.PacketSize, rtp.MaxRTPPacketSize-12)
	}

	if c.Media.PacketInterval <= 0 {
		return fmt.Errorf("invalid packet_interval: %s (must be positive)", c.Media.PacketInterval)
	}

	if c.Media.ReportInterval <= 0 {
		return fmt.Errorf("invalid report_interval: %s (must be positive)", c.Media.ReportInterval)
	}

	return nil
}

// SlogLevel returns slog.Level from config
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo // 기본값
	}
}
