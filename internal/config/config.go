package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "TGSUBS"

type AppConfig struct {
	v *viper.Viper
}

func NewAppConfig() *AppConfig {
	c := &AppConfig{v: viper.New()}

	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()

	setDefaults(c.v)

	return c
}

// Load merges every readable file, in order. Returns true if at least one was read.
func (c *AppConfig) Load(logger *zap.SugaredLogger, filename ...string) bool {
	loaded := false

	for _, name := range filename {
		c.v.SetConfigFile(name)

		if err := c.v.MergeInConfig(); err != nil {
			if logger != nil {
				logger.Infof("error loading config %s: %s", name, err.Error())
			}
		} else {
			loaded = true
		}
	}

	return loaded
}

// LoadDotEnv puts variables from .env style files into the environment.
// Missing files are not an error.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

// Watch calls onChange after the config file is rewritten and re-read.
func (c *AppConfig) Watch(logger *zap.SugaredLogger, onChange func(c *AppConfig)) {
	c.v.OnConfigChange(func(e fsnotify.Event) {
		logger.Infof("config changed: %s %s", e.Op.String(), e.Name)

		if onChange != nil {
			onChange(c)
		}
	})

	c.v.WatchConfig()
}

func (c *AppConfig) Bool(key string) bool {
	return c.v.GetBool(key)
}

func (c *AppConfig) String(key string) string {
	return c.v.GetString(key)
}

func (c *AppConfig) Int(key string) int {
	return c.v.GetInt(key)
}

func (c *AppConfig) Duration(key string) time.Duration {
	return c.v.GetDuration(key)
}

func (c *AppConfig) Set(key string, v any) {
	c.v.Set(key, v)
}

func (c *AppConfig) APIURL() string {
	return strings.TrimSuffix(c.v.GetString("api.url"), "/")
}

func (c *AppConfig) APITimeout() time.Duration {
	return c.v.GetDuration("api.timeout")
}

func (c *AppConfig) Debounce() time.Duration {
	return c.v.GetDuration("console.debounce")
}

func (c *AppConfig) PerPage() int {
	return c.v.GetInt("console.per_page")
}

func (c *AppConfig) LogFile() string {
	return c.v.GetString("log.file")
}

func (c *AppConfig) ServerAddr() string {
	return c.v.GetString("server.addr")
}

func (c *AppConfig) ServerPrefix() string {
	return c.v.GetString("server.prefix")
}

func (c *AppConfig) DB() string {
	return c.v.GetString("server.db")
}

func (c *AppConfig) SeedFile() string {
	return c.v.GetString("server.seed")
}

func (c *AppConfig) InviteBase() string {
	return c.v.GetString("server.invite_base")
}

func (c *AppConfig) InviteTTL() time.Duration {
	return c.v.GetDuration("server.invite_ttl")
}

func (c *AppConfig) SubscriptionTTL() time.Duration {
	return c.v.GetDuration("server.subscription_ttl")
}

func (c *AppConfig) ExpireSchedule() string {
	return c.v.GetString("server.expire_schedule")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", time.Second*10)

	v.SetDefault("console.debounce", time.Millisecond*500)
	v.SetDefault("console.per_page", 10)

	v.SetDefault("log.file", "tgsubs_admin.log")

	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.prefix", "/api")
	v.SetDefault("server.db", "tgsubs.sqlite")
	v.SetDefault("server.seed", "")
	v.SetDefault("server.invite_base", "https://t.me/+")
	v.SetDefault("server.invite_ttl", time.Hour*24)
	v.SetDefault("server.subscription_ttl", time.Hour*24*30)
	v.SetDefault("server.expire_schedule", "@every 1m")
}
