package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FLAGBOT_CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "flags_db.json", cfg.Store.Path)
	require.Equal(t, "ISEN", cfg.Flag.Prefix)
	require.Equal(t, 10*time.Second, cfg.Platform.Timeout)
	require.Equal(t, "fr", cfg.Messages.Locale)
	require.True(t, cfg.MCP.Enabled)
	require.False(t, cfg.IssuanceEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flagbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  api_token: file-token
store:
  path: /data/flags.json
platform:
  base_url: https://example.supabase.co
  challenge_id: from-file
  timeout: 3s
discord:
  token: bot-token
  ctf_channel_id: "123"
`), 0o644))

	t.Setenv("FLAGBOT_CONFIG_PATH", path)
	t.Setenv("FLAGBOT_SERVER_PORT", "9100")
	t.Setenv("FLAGBOT_PLATFORM_CHALLENGE_ID", "from-env")
	t.Setenv("FLAGBOT_MESSAGES_LOCALE", "en")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "file-token", cfg.Server.APIToken)
	require.Equal(t, "/data/flags.json", cfg.Store.Path)
	require.Equal(t, "https://example.supabase.co", cfg.Platform.BaseURL)
	require.Equal(t, "from-env", cfg.Platform.ChallengeID)
	require.Equal(t, 3*time.Second, cfg.Platform.Timeout)
	require.Equal(t, "bot-token", cfg.Discord.Token)
	require.Equal(t, "123", cfg.Discord.CTFChannelID)
	require.Equal(t, "en", cfg.Messages.Locale)
	require.True(t, cfg.IssuanceEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("FLAGBOT_CONFIG_PATH", "")
	t.Setenv("FLAGBOT_SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("FLAGBOT_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Discord.Token = "bot-token"
	require.ErrorIs(t, cfg.Validate(), ErrConfigurationMissing)

	cfg.Platform.BaseURL = "https://example.supabase.co"
	require.ErrorIs(t, cfg.Validate(), ErrConfigurationMissing)

	cfg.Platform.ChallengeID = "ch1"
	require.NoError(t, cfg.Validate())

	cfg.Platform.Timeout = 0
	require.ErrorIs(t, cfg.Validate(), ErrConfigurationMissing)
}
