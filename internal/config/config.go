package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/Wyydra/inplay/internal/core/domain"
)

var (
	ErrInvalidPort      = errors.New("port must be between 1 and 65535")
	ErrInvalidPing      = errors.New("ws.ping_period must be shorter than ws.pong_wait")
	ErrInvalidWebSocket = errors.New("ws settings must be positive")
	ErrInvalidHistory   = errors.New("room.history_limit must not be negative")
)

type Config struct {
	Port           uint32          `yaml:"port,omitempty"`
	AllowedOrigins []string        `yaml:"allowed_origins,omitempty"`
	Logging        LoggingConfig   `yaml:"logging,omitempty"`
	Room           RoomConfig      `yaml:"room,omitempty"`
	WebSocket      WebSocketConfig `yaml:"ws,omitempty"`
	Development    bool            `yaml:"development,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	// JSON output instead of the console writer
	JSON bool `yaml:"json,omitempty"`
}

type RoomConfig struct {
	// replace or reject a second presenter
	PresenterPolicy string `yaml:"presenter_policy,omitempty"`
	// notify or evict viewers when the presenter leaves
	DisconnectPolicy string `yaml:"disconnect_policy,omitempty"`
	// newest chat messages kept per room, 0 keeps all
	HistoryLimit int `yaml:"history_limit,omitempty"`
}

type WebSocketConfig struct {
	SendBuffer     int           `yaml:"send_buffer,omitempty"`
	MaxMessageSize int64         `yaml:"max_message_size,omitempty"`
	WriteWait      time.Duration `yaml:"write_wait,omitempty"`
	PongWait       time.Duration `yaml:"pong_wait,omitempty"`
	PingPeriod     time.Duration `yaml:"ping_period,omitempty"`
}

var DefaultConfig = Config{
	Port:           4000,
	AllowedOrigins: []string{"*"},
	Room: RoomConfig{
		PresenterPolicy:  string(domain.PresenterReplace),
		DisconnectPolicy: string(domain.DisconnectNotify),
	},
	WebSocket: WebSocketConfig{
		SendBuffer:     256,
		MaxMessageSize: 64 * 1024,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
	},
}

// Flags override the matching config keys when set.
var Flags = []cli.Flag{
	&cli.UintFlag{
		Name:    "port",
		Usage:   "port to listen on",
		EnvVars: []string{"PORT"},
	},
	&cli.StringSliceFlag{
		Name:    "allowed-origins",
		Usage:   "origins allowed to open websockets, comma separated or repeated. * allows any",
		EnvVars: []string{"ALLOWED_ORIGINS"},
	},
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "debug, info, warn or error",
		EnvVars: []string{"LOG_LEVEL"},
	},
	&cli.BoolFlag{
		Name:    "log-json",
		Usage:   "log as JSON instead of the console format",
		EnvVars: []string{"LOG_JSON"},
	},
	&cli.StringFlag{
		Name:    "presenter-policy",
		Usage:   "what happens when a second presenter joins a room: replace or reject",
		EnvVars: []string{"PRESENTER_POLICY"},
	},
	&cli.StringFlag{
		Name:    "disconnect-policy",
		Usage:   "what happens to viewers when the presenter leaves: notify or evict",
		EnvVars: []string{"DISCONNECT_POLICY"},
	},
	&cli.IntFlag{
		Name:    "history-limit",
		Usage:   "chat messages kept per room, 0 keeps all",
		EnvVars: []string{"HISTORY_LIMIT"},
	},
	&cli.BoolFlag{
		Name:  "dev",
		Usage: "debug logging with the console formatter",
	},
}

// NewConfig layers the YAML document confString and then any CLI flags or
// environment variables set on c over the defaults.
func NewConfig(confString string, strictMode bool, c *cli.Context) (*Config, error) {
	// start with defaults
	marshalled, err := yaml.Marshal(&DefaultConfig)
	if err != nil {
		return nil, err
	}

	var conf Config
	if err := yaml.Unmarshal(marshalled, &conf); err != nil {
		return nil, err
	}

	if confString != "" {
		decoder := yaml.NewDecoder(strings.NewReader(confString))
		decoder.KnownFields(strictMode)
		if err := decoder.Decode(&conf); err != nil {
			return nil, errors.Wrap(err, "could not parse config")
		}
	}

	if c != nil {
		conf.updateFromCLI(c)
	}

	// an unset ping period follows whatever pong wait ended up configured
	if conf.WebSocket.PingPeriod == 0 {
		conf.WebSocket.PingPeriod = conf.WebSocket.PongWait * 9 / 10
	}

	if conf.Logging.Level == "" {
		if conf.Development {
			conf.Logging.Level = "debug"
		} else {
			conf.Logging.Level = "info"
		}
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &conf, nil
}

func (conf *Config) updateFromCLI(c *cli.Context) {
	if c.IsSet("port") {
		conf.Port = uint32(c.Uint("port"))
	}
	if c.IsSet("allowed-origins") {
		conf.AllowedOrigins = splitList(c.StringSlice("allowed-origins"))
	}
	if c.IsSet("log-level") {
		conf.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-json") {
		conf.Logging.JSON = c.Bool("log-json")
	}
	if c.IsSet("presenter-policy") {
		conf.Room.PresenterPolicy = c.String("presenter-policy")
	}
	if c.IsSet("disconnect-policy") {
		conf.Room.DisconnectPolicy = c.String("disconnect-policy")
	}
	if c.IsSet("history-limit") {
		conf.Room.HistoryLimit = c.Int("history-limit")
	}
	if c.IsSet("dev") {
		conf.Development = c.Bool("dev")
	}
}

func (conf *Config) Validate() error {
	if conf.Port == 0 || conf.Port > 65535 {
		return ErrInvalidPort
	}
	if _, err := domain.ParsePresenterPolicy(conf.Room.PresenterPolicy); err != nil {
		return err
	}
	if _, err := domain.ParseDisconnectPolicy(conf.Room.DisconnectPolicy); err != nil {
		return err
	}
	if conf.Room.HistoryLimit < 0 {
		return ErrInvalidHistory
	}
	ws := conf.WebSocket
	if ws.SendBuffer <= 0 || ws.MaxMessageSize <= 0 || ws.WriteWait <= 0 || ws.PongWait <= 0 || ws.PingPeriod <= 0 {
		return ErrInvalidWebSocket
	}
	if ws.PingPeriod >= ws.PongWait {
		return ErrInvalidPing
	}
	return nil
}

// PresenterPolicy and DisconnectPolicy are only valid after Validate.
func (conf *Config) PresenterPolicy() domain.PresenterPolicy {
	p, _ := domain.ParsePresenterPolicy(conf.Room.PresenterPolicy)
	return p
}

func (conf *Config) DisconnectPolicy() domain.DisconnectPolicy {
	p, _ := domain.ParseDisconnectPolicy(conf.Room.DisconnectPolicy)
	return p
}

// GetConfigString returns configBody if set, otherwise the contents of configFile.
func GetConfigString(configFile string, configBody string) (string, error) {
	if configBody != "" || configFile == "" {
		return configBody, nil
	}
	content, err := os.ReadFile(configFile)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// splitList accepts both repeated flags and comma separated values.
func splitList(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
