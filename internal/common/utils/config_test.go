package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "mock-interview.conf")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadConfDefaults(t *testing.T) {
	dir := t.TempDir()
	p := writeConf(t, dir, `{"listen_addr": ":9090", "auth": {"jwt_key": "0123456789abcdef0123"}}`)

	conf, err := LoadConf(p)
	require.NoError(t, err)
	assert.Equal(t, ":9090", conf.ListenAddr)
	assert.Equal(t, "token", conf.Auth.CookieName)
	assert.Equal(t, 5, conf.Interview.QuestionCount)
	assert.Equal(t, 3, conf.Proctor.MaxViolations)
	assert.Equal(t, "mock_interview", conf.Mongo.Database)
}

func TestLoadConfEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JWT_KEY", "")
	t.Setenv("KAFKA_BROKERS", "")
	// godotenv never overrides variables that are already present.
	require.NoError(t, os.Unsetenv("JWT_KEY"))
	require.NoError(t, os.Unsetenv("KAFKA_BROKERS"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("JWT_KEY=from-dotenv-0123456789\nKAFKA_BROKERS=a:9092, b:9092\n"), 0o644))
	p := writeConf(t, dir, `{"listen_addr": ":9090"}`)

	conf, err := LoadConf(p)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv-0123456789", conf.Auth.JwtKey)
	assert.Equal(t, []string{"a:9092", "b:9092"}, conf.Kafka.Brokers)
}

func TestValidateRejectsShortJwtKey(t *testing.T) {
	conf := NewSample()
	conf.Auth.JwtKey = "short"
	assert.Error(t, conf.Validate())

	conf.Auth.JwtKey = "0123456789abcdef"
	assert.NoError(t, conf.Validate())

	conf.Storage.Provider = "ftp"
	assert.Error(t, conf.Validate())
}
