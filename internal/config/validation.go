package config

import (
	"net/url"
	"strings"
)

// Validate checks the settings every command needs before it talks to the
// server: API URL, org and token.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Org) == "" {
		return ErrConfiguration.WithContext("field", "org").WithContext("hint", "set org or "+EnvOrg)
	}
	if strings.TrimSpace(c.Token) == "" {
		return ErrConfiguration.WithContext("field", "token").WithContext("hint", "set token or "+EnvToken)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfiguration.WithContext("field", "api_url").WithContext("value", c.APIURL)
	}
	if c.HTTPTimeout < 0 {
		return ErrConfiguration.WithContext("field", "http_timeout")
	}
	if c.Watch.Interval < 0 {
		return ErrConfiguration.WithContext("field", "watch.interval")
	}
	return nil
}
