package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/schedule"
	"WikiCardPoster/internal/synopsis"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{ConfigPathEnv, logLevelEnv, telegramTokenEnv, telegramChatIDEnv, channelHandleEnv} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Europe/Kyiv", cfg.Schedule.Location().String())
	slots, err := cfg.Slots()
	require.NoError(t, err)
	assert.Equal(t, []schedule.Slot{{Hour: 8}, {Hour: 14, Minute: 30}, {Hour: 17, Minute: 45}}, slots)
	assert.Len(t, cfg.Categories(), 5)
	assert.Equal(t, domain.Category("Категорія:Штучний інтелект"), cfg.Categories()[0])
	assert.Equal(t, 30*time.Second, cfg.Wikipedia.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Telegram.Timeout)
	assert.Empty(t, cfg.Telegram.BotToken)
	assert.Equal(t, "#AI", cfg.Caption.Hashtags[len(cfg.Caption.Hashtags)-1])
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
logging:
  level: debug
  format: json
schedule:
  timezone: UTC
  policy: window
  window:
    from: 10
    to: 12
wikipedia:
  categories: ["Категорія:Нейронні мережі"]
  timeout: 5s
  htmlExtract: true
synopsis:
  mode: long
  substitutions:
    - from: модель
      to: схема
card:
  style: photo
telegram:
  silent: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, time.UTC, cfg.Schedule.Location())
	assert.Equal(t, PolicyWindow, cfg.Schedule.Policy)
	assert.Equal(t, WindowConfig{From: 10, To: 12}, cfg.Schedule.Window)
	assert.Equal(t, []string{"Категорія:Нейронні мережі"}, cfg.Wikipedia.Categories)
	assert.Equal(t, 5*time.Second, cfg.Wikipedia.Timeout)
	assert.True(t, cfg.Wikipedia.HTMLExtract)
	assert.Equal(t, []synopsis.Substitution{{From: "модель", To: "схема"}}, cfg.Synopsis.Substitutions)
	assert.Equal(t, "photo", cfg.Card.Style)
	assert.False(t, cfg.Telegram.Silent)

	// untouched sections keep their defaults
	assert.Equal(t, 1280, cfg.Card.Width)
	assert.Equal(t, Default().Caption.StrongKeywords, cfg.Caption.StrongKeywords)
	assert.Equal(t, 200, cfg.Wikipedia.MemberLimit)
	assert.Equal(t, 6*time.Hour, cfg.Wikipedia.MemberCacheTTL)
}

func TestLoadPathFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(ConfigPathEnv, writeConfig(t, "card:\n  style: abstract\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "abstract", cfg.Card.Style)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(telegramTokenEnv, " 123:abc ")
	t.Setenv(telegramChatIDEnv, "@ai_channel")
	t.Setenv(channelHandleEnv, "@ai_channel")
	t.Setenv(logLevelEnv, "warn")

	cfg, err := Load(writeConfig(t, "telegram:\n  botToken: from-file\n  chatId: file-chat\n"))
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "@ai_channel", cfg.Telegram.ChatID)
	assert.Equal(t, "@ai_channel", cfg.Telegram.ChannelHandle)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)

	cases := map[string]string{
		"bad slot":      "schedule:\n  times: [\"25:00\"]\n",
		"window order":  "schedule:\n  policy: window\n  window:\n    from: 20\n    to: 10\n",
		"policy":        "schedule:\n  policy: cron\n",
		"timezone":      "schedule:\n  timezone: Mars/Olympus\n",
		"no categories": "wikipedia:\n  categories: []\n",
		"cache ttl":     "wikipedia:\n  memberCacheTtl: -1m\n",
		"no sentences":  "synopsis:\n  shortSentences: 0\n",
		"too long":      "synopsis:\n  longSentences: 11\n",
		"too short":     "synopsis:\n  shortSentences: 2\n",
		"wrap width":    "synopsis:\n  wrapWidth: 0\n",
		"style":         "card:\n  style: watercolor\n",
		"mode":          "synopsis:\n  mode: medium\n",
		"emoji":         "caption:\n  emojiMode: all\n",
		"fallback":      "synopsis:\n  fallback: \"  \"\n",
		"size":          "card:\n  width: 0\n",
		"yaml":          "card: [\n",
		"cron":          "serve:\n  cron: \"every minute\"\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidateReportsConfigurationError(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Wikipedia.Categories = nil
	err := cfg.Validate()

	var cerr *domain.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "wikipedia categories", cerr.Field)
}

func TestExampleConfigLoads(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "keywords", cfg.Caption.EmojiMode)
	assert.Equal(t, "#ШІдлячайників", cfg.Card.Hashtag)
	assert.Len(t, cfg.Wikipedia.Categories, 3)
	assert.Equal(t, Default().Caption.EmojiGroups, cfg.Caption.EmojiGroups)
}
