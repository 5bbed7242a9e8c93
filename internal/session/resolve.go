package session

import (
	"os"

	"github.com/matheus3301/freightmsg/internal/config"
)

const DefaultSessionName = "main"

// Resolve picks the session name from the first source that sets one: the
// --session flag, FREIGHTMSG_SESSION, default_session in config.toml, then
// DefaultSessionName. The result is not validated.
func Resolve(flagOverride string) string {
	sources := []func() string{
		func() string { return flagOverride },
		func() string { return os.Getenv(config.EnvSession) },
		configDefault,
	}
	for _, source := range sources {
		if name := source(); name != "" {
			return name
		}
	}
	return DefaultSessionName
}

func configDefault() string {
	cfg, err := config.Load(ConfigPath())
	if err != nil {
		return ""
	}
	return cfg.DefaultSession
}
