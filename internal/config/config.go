package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"WikiCardPoster/internal/caption"
	"WikiCardPoster/internal/card"
	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/schedule"
	"WikiCardPoster/internal/synopsis"
)

const (
	defaultTimezone   = "Europe/Kyiv"
	ConfigPathEnv     = "WIKICARDPOSTER_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	channelHandleEnv  = "CHANNEL_HANDLE"

	PolicyFixed  = "fixed"
	PolicyWindow = "window"
)

// Config holds every setting the poster needs. It is built once by Load.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	Synopsis  SynopsisConfig  `yaml:"synopsis"`
	Card      CardConfig      `yaml:"card"`
	Caption   CaptionConfig   `yaml:"caption"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Serve     ServeConfig     `yaml:"serve"`
	Preview   PreviewConfig   `yaml:"preview"`
}

// LoggingConfig selects slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScheduleConfig defines when a run is allowed to post.
type ScheduleConfig struct {
	Timezone string       `yaml:"timezone"`
	Policy   string       `yaml:"policy"`
	Times    []string     `yaml:"times"`
	Window   WindowConfig `yaml:"window"`

	location *time.Location `yaml:"-"`
}

// WindowConfig bounds the daily hour picked by the window policy.
type WindowConfig struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Location returns the bound timezone.
func (s ScheduleConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// WikipediaConfig describes the encyclopedia source.
type WikipediaConfig struct {
	APIURL      string        `yaml:"apiUrl"`
	UserAgent   string        `yaml:"userAgent"`
	Categories  []string      `yaml:"categories"`
	Denylist    []string      `yaml:"denylist"`
	MemberLimit int           `yaml:"memberLimit"`
	ThumbSize   int           `yaml:"thumbSize"`
	HTMLExtract bool          `yaml:"htmlExtract"`
	Timeout     time.Duration `yaml:"timeout"`
	// MemberCacheTTL keeps category listings between serve runs; zero disables it.
	MemberCacheTTL time.Duration `yaml:"memberCacheTtl"`
}

// SynopsisConfig controls condensation and rewriting.
type SynopsisConfig struct {
	Mode           string                  `yaml:"mode"`
	ShortSentences int                     `yaml:"shortSentences"`
	LongSentences  int                     `yaml:"longSentences"`
	WrapWidth      int                     `yaml:"wrapWidth"`
	Leads          []string                `yaml:"leads"`
	Fallback       string                  `yaml:"fallback"`
	Headings       []string                `yaml:"headings"`
	Substitutions  []synopsis.Substitution `yaml:"substitutions"`
}

// CardConfig controls the generated image.
type CardConfig struct {
	Style         string `yaml:"style"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	TitleOnImage  bool   `yaml:"titleOnImage"`
	MaxTitleRunes int    `yaml:"maxTitleRunes"`
	Hashtag       string `yaml:"hashtag"`
	FontRegular   string `yaml:"fontRegular"`
	FontBold      string `yaml:"fontBold"`
}

// CaptionConfig controls caption decoration.
type CaptionConfig struct {
	Hashtags       []string             `yaml:"hashtags"`
	StrongKeywords []string             `yaml:"strongKeywords"`
	EmojiMode      string               `yaml:"emojiMode"`
	EmojiPool      []string             `yaml:"emojiPool"`
	EmojiGroups    []caption.EmojiGroup `yaml:"emojiGroups"`
	DefaultEmoji   string               `yaml:"defaultEmoji"`
	MaxEmoji       int                  `yaml:"maxEmoji"`
	Attribution    string               `yaml:"attribution"`
	MaxLength      int                  `yaml:"maxLength"`
}

// TelegramConfig wires all data required to post photos. Secrets come from the environment.
type TelegramConfig struct {
	APIURL        string        `yaml:"apiUrl"`
	BotToken      string        `yaml:"botToken"`
	ChatID        string        `yaml:"chatId"`
	ChannelHandle string        `yaml:"channelHandle"`
	Silent        bool          `yaml:"silent"`
	Timeout       time.Duration `yaml:"timeout"`
}

// ServeConfig tunes the long-running loop. Cron is evaluated in the schedule timezone.
type ServeConfig struct {
	Cron string `yaml:"cron"`
}

// PreviewConfig names where previews are written.
type PreviewConfig struct {
	OutputDir string `yaml:"outputDir"`
}

// Load builds the configuration: defaults, then the YAML file at path (or
// $WIKICARDPOSTER_CONFIG), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(telegramTokenEnv)); v != "" {
		c.Telegram.BotToken = v
	}
	if v := strings.TrimSpace(os.Getenv(telegramChatIDEnv)); v != "" {
		c.Telegram.ChatID = v
	}
	if v := strings.TrimSpace(os.Getenv(channelHandleEnv)); v != "" {
		c.Telegram.ChannelHandle = v
	}
	if v := strings.TrimSpace(os.Getenv(logLevelEnv)); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Schedule.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("schedule timezone %q: %w", tz, err)
	}
	c.Schedule.Timezone = tz
	c.Schedule.location = loc
	return nil
}

// Validate checks values that would otherwise fail deep inside a run.
// Telegram credentials are checked by the publisher, not here.
func (c Config) Validate() error {
	var errs []error

	switch c.Schedule.Policy {
	case PolicyFixed:
		if _, err := c.Slots(); err != nil {
			errs = append(errs, err)
		}
	case PolicyWindow:
		if _, err := schedule.NewWindow(c.Schedule.Window.From, c.Schedule.Window.To, ""); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("schedule policy %q: want %s or %s", c.Schedule.Policy, PolicyFixed, PolicyWindow))
	}

	if _, err := cron.ParseStandard(c.Serve.Cron); err != nil {
		errs = append(errs, fmt.Errorf("serve cron %q: %w", c.Serve.Cron, err))
	}
	if len(c.Wikipedia.Categories) == 0 {
		errs = append(errs, &domain.ConfigurationError{Field: "wikipedia categories"})
	}
	if c.Wikipedia.MemberCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("wikipedia member cache ttl %s is negative", c.Wikipedia.MemberCacheTTL))
	}
	switch synopsis.Mode(c.Synopsis.Mode) {
	case synopsis.ModeShort, synopsis.ModeLong:
	default:
		errs = append(errs, fmt.Errorf("synopsis mode %q: want short or long", c.Synopsis.Mode))
	}
	for name, n := range map[string]int{
		"short": c.Synopsis.ShortSentences,
		"long":  c.Synopsis.LongSentences,
	} {
		if n < synopsis.MinSentences || n > synopsis.MaxSentences {
			errs = append(errs, fmt.Errorf("synopsis %s sentences %d: want %d..%d", name, n, synopsis.MinSentences, synopsis.MaxSentences))
		}
	}
	if c.Synopsis.WrapWidth <= 0 {
		errs = append(errs, fmt.Errorf("synopsis wrap width %d must be positive", c.Synopsis.WrapWidth))
	}
	if strings.TrimSpace(c.Synopsis.Fallback) == "" {
		errs = append(errs, &domain.ConfigurationError{Field: "synopsis fallback"})
	}
	switch c.Card.Style {
	case card.StyleFlat, card.StylePhoto, card.StyleAbstract:
	default:
		errs = append(errs, fmt.Errorf("card style %q: want flat, photo or abstract", c.Card.Style))
	}
	if c.Card.Width <= 0 || c.Card.Height <= 0 {
		errs = append(errs, fmt.Errorf("card size %dx%d is invalid", c.Card.Width, c.Card.Height))
	}
	switch caption.EmojiMode(c.Caption.EmojiMode) {
	case caption.EmojiRandom, caption.EmojiKeywords:
	default:
		errs = append(errs, fmt.Errorf("caption emoji mode %q: want random or keywords", c.Caption.EmojiMode))
	}

	return errors.Join(errs...)
}

// Slots parses the fixed publish times.
func (c Config) Slots() ([]schedule.Slot, error) {
	if len(c.Schedule.Times) == 0 {
		return nil, &domain.ConfigurationError{Field: "schedule times"}
	}
	slots := make([]schedule.Slot, 0, len(c.Schedule.Times))
	for _, t := range c.Schedule.Times {
		slot, err := schedule.ParseSlot(t)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Categories converts configured names to domain categories.
func (c Config) Categories() []domain.Category {
	out := make([]domain.Category, len(c.Wikipedia.Categories))
	for i, name := range c.Wikipedia.Categories {
		out[i] = domain.Category(name)
	}
	return out
}

// Default returns the built-in configuration.
func Default() Config {
	loc, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Schedule: ScheduleConfig{
			Timezone: defaultTimezone,
			Policy:   PolicyFixed,
			Times:    []string{"08:00", "14:30", "17:45"},
			Window:   WindowConfig{From: 9, To: 20},
			location: loc,
		},
		Wikipedia: WikipediaConfig{
			APIURL:    "https://uk.wikipedia.org/w/api.php",
			UserAgent: "WikiCardPoster/1.0 (+https://github.com/wikicardposter)",
			Categories: []string{
				"Категорія:Штучний інтелект",
				"Категорія:Машинне навчання",
				"Категорія:Нейронні мережі",
				"Категорія:Обробка природної мови",
				"Категорія:Комп'ютерний зір",
			},
			Denylist:    []string{"CAPTCHA", "Капча", "відеогра", "серіал", "фільм", "кіно"},
			MemberLimit: 200,
			ThumbSize:   1280,
			Timeout:     30 * time.Second,

			MemberCacheTTL: 6 * time.Hour,
		},
		Synopsis: SynopsisConfig{
			Mode:           string(synopsis.ModeShort),
			ShortSentences: 3,
			LongSentences:  8,
			WrapWidth:      60,
			Leads:          []string{"Коротко:", "По суті:", "Як простіше пояснити:"},
			Fallback:       "Коротко про ШІ простими словами.",
			Headings:       []string{"🔎 Що це:", "⚙️ Як працює:", "🧩 Де застосовують:", "💡 Порада:"},
			Substitutions: []synopsis.Substitution{
				{From: "штучний інтелект", To: "штучний розум"},
				{From: "комп'ютер", To: "ЕОМ"},
				{From: "дані", To: "набір даних"},
				{From: "застосовується", To: "використовується"},
				{From: "визначити", To: "з’ясувати"},
				{From: " - ", To: " — "},
			},
		},
		Card: CardConfig{
			Style:         card.StyleFlat,
			Width:         1280,
			Height:        720,
			TitleOnImage:  true,
			MaxTitleRunes: 40,
		},
		Caption: CaptionConfig{
			Hashtags: []string{"#ШІдлячайників", "#ШІ", "#машинненавчання", "#нейромережі", "#AI"},
			StrongKeywords: []string{
				"нейрон", "мереж", "трансформер", "attention", "gpt", "bert", "lstm",
				"класифікац", "регрес", "датасет", "обчислен", "gpu", "tensor",
				"nlp", "cv", "модель", "алгоритм", "ймовір",
			},
			EmojiMode: string(caption.EmojiRandom),
			EmojiPool: []string{"🤖", "🧠", "📊", "⚙️", "✨", "🧪", "📈"},
			EmojiGroups: []caption.EmojiGroup{
				{Emoji: "🧠", Keywords: []string{"нейрон", "мереж", "мозок"}},
				{Emoji: "📊", Keywords: []string{"статист", "регрес", "ймовір", "датасет"}},
				{Emoji: "💬", Keywords: []string{"мов", "текст", "nlp", "gpt", "bert"}},
				{Emoji: "👁️", Keywords: []string{"зір", "зобра", "cv", "розпізна"}},
				{Emoji: "⚙️", Keywords: []string{"алгоритм", "обчислен", "gpu"}},
			},
			DefaultEmoji: "🤖",
			MaxEmoji:     2,
			Attribution:  "📚 Джерело: [Вікіпедія]({url})",
			MaxLength:    1024,
		},
		Telegram: TelegramConfig{
			APIURL:  "https://api.telegram.org",
			Silent:  true,
			Timeout: 60 * time.Second,
		},
		Serve:   ServeConfig{Cron: "* * * * *"},
		Preview: PreviewConfig{OutputDir: "preview"},
	}
}
