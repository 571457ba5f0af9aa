/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	assets       string
	bind         string
	debug        bool
	port         int
	prefix       string
	profile      bool
	questions    string
	rateBurst    int
	rateLimit    int
	roundSeconds int
	tlsCert      string
	tlsKey       string
	verbose      bool
	version      bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.roundSeconds < 0 {
		return fmt.Errorf("invalid round length (must be 0 or greater): %d", c.roundSeconds)
	}
	if c.rateLimit < 1 || c.rateBurst < 1 {
		return fmt.Errorf("invalid rate limit (must be 1 or greater): %d/s, burst %d", c.rateLimit, c.rateBurst)
	}
	if c.questions == "" {
		return errors.New("--questions must point to a question file")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PICWORD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "picword",
		Short:         "A classroom \"four pictures, one word\" guessing game, run by a single admin.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			setupLogging(cfg)
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.assets, "assets", "public/assets", "directory of round images, served under /assets/ (env: PICWORD_ASSETS)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PICWORD_BIND)")
	fs.BoolVar(&cfg.debug, "debug", false, "log rejected and ignored client actions (env: PICWORD_DEBUG)")
	fs.IntVarP(&cfg.port, "port", "p", 3000, "port to listen on (env: PICWORD_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PICWORD_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PICWORD_PROFILE)")
	fs.StringVarP(&cfg.questions, "questions", "q", "questions.json", "path to the question file (env: PICWORD_QUESTIONS)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 10, "burst of client messages allowed above the rate limit (env: PICWORD_RATE_BURST)")
	fs.IntVar(&cfg.rateLimit, "rate-limit", 5, "client messages accepted per second, per connection (env: PICWORD_RATE_LIMIT)")
	fs.IntVar(&cfg.roundSeconds, "round-seconds", 60, "countdown per round in seconds, 0 to disable (env: PICWORD_ROUND_SECONDS)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PICWORD_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PICWORD_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PICWORD_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PICWORD_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("picword v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
