// Package credentials resolves API tokens from named profiles.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/byteowlz/diffbot/pkg/diffbot"
)

// ErrNoToken is wrapped by every resolver that found nothing.
var ErrNoToken = errors.New("no token")

// Resolver returns the token for a profile.
type Resolver interface {
	Resolve(profile string) (string, error)
}

// Source adapts r to the library's TokenSource. Failures become
// credential errors.
func Source(r Resolver) diffbot.TokenSource {
	return func(profile string) (string, error) {
		token, err := r.Resolve(profile)
		if err != nil {
			return "", diffbot.CredentialError("profile "+profile, err)
		}
		return token, nil
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/diffbot/credentials.toml.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "diffbot", "credentials.toml")
}

// ProfileFile reads tokens from a TOML file of the form
//
//	[profiles.default]
//	token = "..."
type ProfileFile struct {
	Path string
}

type profileDoc struct {
	Profiles map[string]struct {
		Token string `toml:"token"`
	} `toml:"profiles"`
}

// Resolve looks up profile, ignoring case. A missing file or profile
// yields ErrNoToken; two profiles differing only in case are an error.
func (f ProfileFile) Resolve(profile string) (string, error) {
	var doc profileDoc
	if _, err := toml.DecodeFile(f.Path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", f.Path, ErrNoToken)
		}
		return "", fmt.Errorf("failed to read %s: %w", f.Path, err)
	}

	// Profile names are case-insensitive; two spellings with different
	// tokens cannot be told apart.
	var found []string
	for name, p := range doc.Profiles {
		if strings.EqualFold(name, profile) && p.Token != "" {
			found = append(found, p.Token)
		}
	}
	if len(found) == 0 {
		return "", fmt.Errorf("profile %q in %s: %w", profile, f.Path, ErrNoToken)
	}
	for _, tok := range found[1:] {
		if tok != found[0] {
			return "", fmt.Errorf("profile %q in %s is ambiguous", profile, f.Path)
		}
	}
	return found[0], nil
}

// Env reads DIFFBOT_TOKEN_<PROFILE>, then DIFFBOT_TOKEN, from the process
// environment and then from an optional .env file. The process
// environment is never modified.
type Env struct {
	DotEnv string
}

// EnvName returns the profile-specific variable name.
func EnvName(profile string) string {
	p := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(profile))
	return "DIFFBOT_TOKEN_" + p
}

// Resolve reads EnvName(profile), then DIFFBOT_TOKEN, from the process
// environment and then from DotEnv.
func (e Env) Resolve(profile string) (string, error) {
	names := []string{EnvName(profile), "DIFFBOT_TOKEN"}

	for _, name := range names {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v, nil
		}
	}

	if e.DotEnv != "" {
		vars, err := godotenv.Read(e.DotEnv)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to read %s: %w", e.DotEnv, err)
		}
		for _, name := range names {
			if v := vars[name]; v != "" {
				return v, nil
			}
		}
	}
	return "", fmt.Errorf("%s or DIFFBOT_TOKEN: %w", names[0], ErrNoToken)
}

// Static always resolves to Token.
type Static struct {
	Token string
}

// Resolve returns Token for every profile.
func (s Static) Resolve(string) (string, error) {
	if s.Token == "" {
		return "", ErrNoToken
	}
	return s.Token, nil
}

// Chain tries each resolver in order. A resolver that found nothing is
// skipped; any other failure stops the chain.
type Chain []Resolver

// Resolve returns the first token found. Only ErrNoToken moves on to
// the next resolver.
func (c Chain) Resolve(profile string) (string, error) {
	var errs []error
	for _, r := range c {
		token, err := r.Resolve(profile)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrNoToken) {
			return "", err
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", ErrNoToken
	}
	return "", errors.Join(errs...)
}
