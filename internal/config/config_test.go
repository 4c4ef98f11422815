package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/Wyydra/inplay/internal/core/domain"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	app := cli.NewApp()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestConfig_Defaults(t *testing.T) {
	conf, err := NewConfig("", true, nil)
	require.NoError(t, err)

	require.Equal(t, uint32(4000), conf.Port)
	require.Equal(t, []string{"*"}, conf.AllowedOrigins)
	require.Equal(t, "info", conf.Logging.Level)
	require.Equal(t, domain.PresenterReplace, conf.PresenterPolicy())
	require.Equal(t, domain.DisconnectNotify, conf.DisconnectPolicy())
	require.Equal(t, 0, conf.Room.HistoryLimit)
	require.Equal(t, 256, conf.WebSocket.SendBuffer)
	require.Equal(t, 60*time.Second, conf.WebSocket.PongWait)
	require.Equal(t, 54*time.Second, conf.WebSocket.PingPeriod)
}

func TestConfig_PingPeriodFollowsPongWait(t *testing.T) {
	conf, err := NewConfig("ws:\n  pong_wait: 30s", true, nil)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, conf.WebSocket.PongWait)
	require.Equal(t, 27*time.Second, conf.WebSocket.PingPeriod)

	// an explicit ping period is validated, not replaced
	_, err = NewConfig("ws:\n  pong_wait: 30s\n  ping_period: 40s", true, nil)
	require.ErrorIs(t, err, ErrInvalidPing)
}

func TestConfig_YAML(t *testing.T) {
	const content = `port: 8080
allowed_origins:
  - https://app.example.com
room:
  presenter_policy: reject
  disconnect_policy: evict
  history_limit: 50
ws:
  pong_wait: 30s
  ping_period: 20s`

	conf, err := NewConfig(content, true, nil)
	require.NoError(t, err)

	require.Equal(t, uint32(8080), conf.Port)
	require.Equal(t, []string{"https://app.example.com"}, conf.AllowedOrigins)
	require.Equal(t, domain.PresenterReject, conf.PresenterPolicy())
	require.Equal(t, domain.DisconnectEvict, conf.DisconnectPolicy())
	require.Equal(t, 50, conf.Room.HistoryLimit)
	require.Equal(t, 30*time.Second, conf.WebSocket.PongWait)
	require.Equal(t, 20*time.Second, conf.WebSocket.PingPeriod)
	// untouched keys keep their defaults
	require.Equal(t, 10*time.Second, conf.WebSocket.WriteWait)
}

func TestConfig_UnknownKeys(t *testing.T) {
	const content = `unknown: 10
port: 8080`

	_, err := NewConfig(content, true, nil)
	require.Error(t, err)

	conf, err := NewConfig(content, false, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(8080), conf.Port)
}

func TestConfig_FlagsOverrideYAML(t *testing.T) {
	c := newContext(t,
		"--port=9000",
		"--allowed-origins=https://a.example.com, https://b.example.com",
		"--presenter-policy=reject",
		"--history-limit=10",
		"--log-level=warn",
	)

	conf, err := NewConfig("port: 8080\nroom:\n  presenter_policy: replace", true, c)
	require.NoError(t, err)

	require.Equal(t, uint32(9000), conf.Port)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, conf.AllowedOrigins)
	require.Equal(t, domain.PresenterReject, conf.PresenterPolicy())
	require.Equal(t, 10, conf.Room.HistoryLimit)
	require.Equal(t, "warn", conf.Logging.Level)
}

func TestConfig_DevelopmentDefaultsToDebug(t *testing.T) {
	conf, err := NewConfig("", true, newContext(t, "--dev"))
	require.NoError(t, err)
	require.True(t, conf.Development)
	require.Equal(t, "debug", conf.Logging.Level)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad presenter policy", "room:\n  presenter_policy: queue"},
		{"bad disconnect policy", "room:\n  disconnect_policy: kick"},
		{"negative history", "room:\n  history_limit: -1"},
		{"port out of range", "port: 70000"},
		{"ping not shorter than pong", "ws:\n  ping_period: 60s\n  pong_wait: 60s"},
		{"zero buffer", "ws:\n  send_buffer: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.content, true, nil)
			require.Error(t, err)
		})
	}
}

func TestGetConfigString(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("fileContent"), 0o644))

	tests := []struct {
		name       string
		file       string
		body       string
		expected   string
		shouldFail bool
	}{
		{name: "nothing", expected: ""},
		{name: "body only", body: "configBody", expected: "configBody"},
		{name: "body wins", file: file, body: "configBody", expected: "configBody"},
		{name: "file only", file: file, expected: "fileContent"},
		{name: "missing file", file: filepath.Join(t.TempDir(), "missing.yaml"), shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetConfigString(tt.file, tt.body)
			if tt.shouldFail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}
