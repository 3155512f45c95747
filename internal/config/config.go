// Package config loads the archiver's account/database settings via
// spf13/viper, the teacher's own configuration library choice. Grounded on
// original_source/discord_archive/config/settings.py's AccountConfig/
// AppSettings shape, translated from a JSON-file-with-defaults loader into
// viper's layered (file + env + default) model.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

// AccountConfig is one bot account: its token, user-agent string, and the
// guilds it is responsible for archiving.
type AccountConfig struct {
	Name      string   `mapstructure:"name"`
	Token     string   `mapstructure:"token"`
	UserAgent string   `mapstructure:"user_agent"`
	Guilds    []string `mapstructure:"guilds"`
}

// GuildIDs parses Guilds into snowflake IDs, skipping any entry that
// fails to parse rather than aborting configuration load entirely.
func (a AccountConfig) GuildIDs() []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(a.Guilds))
	for _, g := range a.Guilds {
		id, err := snowflake.Parse(g)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// AppSettings is the archiver's full configuration surface.
type AppSettings struct {
	DatabaseURL string          `mapstructure:"database_url"`
	Accounts    []AccountConfig `mapstructure:"accounts"`
}

// Load reads settings from path (defaulting to "config.json" if empty),
// falling back to zero-value defaults when the file does not exist,
// matching original_source/config/settings.py's AppSettings.from_json. A
// DISCORD_ARCHIVE_ prefixed environment variable overrides any matching
// key (e.g. DISCORD_ARCHIVE_DATABASE_URL).
func Load(path string) (*AppSettings, error) {
	v := viper.New()
	if path == "" {
		path = "config.json"
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetEnvPrefix("discord_archive")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_url", "")
	v.SetDefault("accounts", []AccountConfig{})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
		// Missing file: fall through to defaults, matching
		// AppSettings.from_json's behavior for a nonexistent path.
	}

	var settings AppSettings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, errors.Wrap(err, "config: decode settings")
	}
	return &settings, nil
}
