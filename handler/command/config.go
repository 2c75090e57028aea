package command

import "strings"

// LocalHost selects a local shell session.
const LocalHost = "localhost"

// Config defines where and how commands run.
type Config struct {
	// Host is localhost or ssh://host[:port].
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	// Credentials names the scy resource holding SSH credentials.
	Credentials string            `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Directory   string            `json:"directory,omitempty" yaml:"directory,omitempty"`
	Prefix      []string          `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Setup       []string          `json:"setup,omitempty" yaml:"setup,omitempty"`
	Cleanup     []string          `json:"cleanup,omitempty" yaml:"cleanup,omitempty"`
	TimeoutMs   int               `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`
	// MaxSessions limits concurrent commands; 0 means unbounded.
	MaxSessions int `json:"maxSessions,omitempty" yaml:"maxSessions,omitempty"`
}

// Init applies defaults.
func (c *Config) Init() {
	if c.Host == "" {
		c.Host = LocalHost
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = 3600000
	}
}

// IsLocal reports whether commands run on this machine.
func (c *Config) IsLocal() bool {
	host := c.Host
	if index := strings.Index(host, "://"); index != -1 {
		host = host[index+3:]
	}
	if index := strings.IndexAny(host, ":/"); index != -1 {
		host = host[:index]
	}
	return host == LocalHost || host == "127.0.0.1"
}
