// Copyright (c) 2025-present deep.rent GmbH (https://www.deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates the warden YAML configuration.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration of the warden gateway.
type Config struct {
	LogLevel  string   `yaml:"logLevel"`
	LogFormat string   `yaml:"logFormat"`
	Server    Server   `yaml:"server"`
	Upstream  Upstream `yaml:"upstream"`
	Token     Token    `yaml:"token"`
	Rules     []Rule   `yaml:"rules"`
}

// Server configures the listening HTTP server. All timeouts are in
// seconds; zero keeps the built-in default.
type Server struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	ReadTimeout       int    `yaml:"readTimeout"`
	ReadHeaderTimeout int    `yaml:"readHeaderTimeout"`
	IdleTimeout       int    `yaml:"idleTimeout"`
	MaxHeaderBytes    int    `yaml:"maxHeaderBytes"`
}

// Upstream configures the protected service behind the gateway.
type Upstream struct {
	// URL is the base URL requests are forwarded to.
	URL string `yaml:"url"`
	// HealthPath is the upstream path probed by the readiness endpoint.
	HealthPath string `yaml:"healthPath"`
	// FlushInterval is the proxy flush interval in milliseconds.
	FlushInterval int `yaml:"flushInterval"`
}

// Token configures bearer token verification for the subject supplier.
type Token struct {
	// Keys locates the JSON Web Key Set used to verify signatures.
	Keys Keys `yaml:"keys"`
	// Issuer is the required token issuer, empty to skip the check.
	Issuer string `yaml:"issuer"`
	// Audience is the required token audience, empty to skip the check.
	Audience string `yaml:"audience"`
	// Leeway is the acceptable clock skew in seconds.
	Leeway int `yaml:"leeway"`
	// AuthoritiesClaim names the claim carrying granted authorities.
	// Defaults to "authorities".
	AuthoritiesClaim string `yaml:"authoritiesClaim"`
	// RememberMeClaim names the bool claim marking remember-me sessions.
	// Defaults to "remember_me".
	RememberMeClaim string `yaml:"rememberMeClaim"`
}

// Keys configures the JWKS sources; at least one must be set when rules
// other than permitAll/denyAll/anonymous are configured.
type Keys struct {
	// URL of a remote JWKS endpoint polled in the background.
	URL string `yaml:"url"`
	// File is the path of a static JWKS document loaded at startup.
	File string `yaml:"file"`
	// MinInterval is the minimum refresh interval in seconds for the
	// remote endpoint.
	MinInterval int `yaml:"minInterval"`
}

// Rule declares one authorization rule: a path glob, optional HTTP
// methods, and exactly one access requirement.
type Rule struct {
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods"`

	// Exactly one of the following must be set.
	Role               string   `yaml:"role"`
	Authority          string   `yaml:"authority"`
	AnyAuthority       []string `yaml:"anyAuthority"`
	IP                 string   `yaml:"ip"`
	Expr               string   `yaml:"expr"`
	Permit             bool     `yaml:"permit"`
	Deny               bool     `yaml:"deny"`
	Anonymous          bool     `yaml:"anonymous"`
	Authenticated      bool     `yaml:"authenticated"`
	FullyAuthenticated bool     `yaml:"fullyAuthenticated"`
	RememberMe         bool     `yaml:"rememberMe"`
}

// Default returns the configuration defaults applied before the file is
// decoded over them.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "json",
		Server: Server{
			Port: 8080,
		},
		Upstream: Upstream{
			FlushInterval: 200,
		},
		Token: Token{
			AuthoritiesClaim: "authorities",
			RememberMeClaim:  "remember_me",
			Keys: Keys{
				MinInterval: 900,
			},
		},
	}
}

// Load reads, decodes, and validates the configuration file at path.
// Unknown fields are rejected so typos fail at startup instead of being
// silently ignored.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the cross-field constraints of the configuration.
func (c *Config) Validate() error {
	if c.Upstream.URL == "" {
		return fmt.Errorf("upstream.url is required")
	}
	u, err := url.Parse(c.Upstream.URL)
	if err != nil {
		return fmt.Errorf("upstream.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upstream.url must be http or https, got %q", u.Scheme)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	for i, r := range c.Rules {
		if err := r.validate(); err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
	}
	return nil
}

// validate checks a single rule declaration.
func (r Rule) validate() error {
	if r.Path == "" {
		return fmt.Errorf("path is required")
	}
	if n := r.requirements(); n != 1 {
		return fmt.Errorf("exactly one requirement must be set, got %d", n)
	}
	return nil
}

// requirements counts how many requirement fields are set. A present but
// empty anyAuthority list counts as set; it yields a rule that always
// denies.
func (r Rule) requirements() int {
	n := 0
	if r.Role != "" {
		n++
	}
	if r.Authority != "" {
		n++
	}
	if r.AnyAuthority != nil {
		n++
	}
	if r.IP != "" {
		n++
	}
	if r.Expr != "" {
		n++
	}
	for _, b := range []bool{
		r.Permit,
		r.Deny,
		r.Anonymous,
		r.Authenticated,
		r.FullyAuthenticated,
		r.RememberMe,
	} {
		if b {
			n++
		}
	}
	return n
}
