package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"
)

// Session runs shell command lines; *gosh.Service implements it.
type Session interface {
	Run(ctx context.Context, command string, options ...runner.Option) (string, int, error)
	Close() error
}

// Dialer opens a session for the configured host.
type Dialer func(ctx context.Context, config *Config) (Session, error)

// Dial opens a gosh session, local or over SSH.
func Dial(ctx context.Context, config *Config) (Session, error) {
	var options []runner.Option
	if len(config.Env) > 0 {
		options = append(options, runner.WithEnvironment(config.Env))
	}
	if config.IsLocal() {
		service, err := gosh.New(ctx, local.New(options...))
		if err != nil {
			return nil, err
		}
		return service, nil
	}
	clientConfig, err := sshConfig(ctx, config.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to get SSH config: %w", err)
	}
	address := sshAddress(config.Host)
	service, err := gosh.New(ctx, rssh.New(address, clientConfig, options...))
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", address, err)
	}
	return service, nil
}

func sshAddress(host string) string {
	address := host
	if strings.Contains(host, "://") {
		address = url.Host(host)
	}
	if !strings.Contains(address, ":") {
		address += ":22"
	}
	return address
}

func sshConfig(ctx context.Context, credentials string) (*ssh.ClientConfig, error) {
	if credentials == "" {
		credentials = LocalHost
	}
	generic, err := secret.New().GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}
