package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "smartwatch", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "smartwatch:notifications", cfg.Notify.Stream)
	assert.Equal(t, "dispatchers", cfg.Notify.ConsumerGroup)

	// 告警策略默认值
	assert.Equal(t, 60, cfg.Alert.MinBpm)
	assert.Equal(t, 100, cfg.Alert.MaxBpm)
	assert.Equal(t, 37.5, cfg.Alert.MaxTemperature)
	assert.Equal(t, 0.8, cfg.Alert.NearZoneRatio)
	assert.Equal(t, 5*time.Minute, cfg.Alert.HeartbeatInterval)
	assert.Equal(t, 0, cfg.Alert.GlitchConfirmCount)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_NAME", "test-db")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token-123")
	os.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "test-db", cfg.Database.Database)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "token-123", cfg.Line.AccessToken)
	assert.Equal(t, "debug", cfg.Log.Level)

	os.Clearenv()
}

func TestLoad_PolicyFileOverride(t *testing.T) {
	os.Clearenv()

	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := `
min_bpm: 55
max_bpm: 110
max_temperature: 38.0
heartbeat_interval: "10m"
glitch_confirm_count: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	os.Setenv("ALERT_POLICY_FILE", path)
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 55, cfg.Alert.MinBpm)
	assert.Equal(t, 110, cfg.Alert.MaxBpm)
	assert.Equal(t, 38.0, cfg.Alert.MaxTemperature)
	assert.Equal(t, 10*time.Minute, cfg.Alert.HeartbeatInterval)
	assert.Equal(t, 2, cfg.Alert.GlitchConfirmCount)
	// 文件里没写的字段保持默认
	assert.Equal(t, 0.8, cfg.Alert.NearZoneRatio)

	// 调过的阈值要进入仓库的回退阈值
	th := cfg.Alert.DefaultThresholds()
	assert.Equal(t, 55, th.MinBpm)
	assert.Equal(t, 110, th.MaxBpm)
	assert.Equal(t, 38.0, th.MaxTemperature)
}

func TestLoad_PolicyFileInvalid(t *testing.T) {
	os.Clearenv()

	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_bpm: 200\nmax_bpm: 100\n"), 0o644))
	os.Setenv("ALERT_POLICY_FILE", path)
	defer os.Clearenv()

	_, err := Load()
	assert.Error(t, err)
}
