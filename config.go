package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind              string
	defaultMode       string
	finishedGrace     time.Duration
	generateTimeout   time.Duration
	generateToken     string
	generateURL       string
	heartbeatInterval time.Duration
	inactiveTimeout   time.Duration
	port              int
	prefix            string
	profile           bool
	revealDelay       time.Duration
	roomMaxAge        time.Duration
	submitGrace       time.Duration
	tlsCert           string
	tlsKey            string
	verbose           bool
	version           bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if _, ok := gameModes[c.defaultMode]; !ok {
		return fmt.Errorf("unknown game mode: %q", c.defaultMode)
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
	v.SetEnvPrefix("SINFILTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "sinfiltro",
		Short:         "A party game of unfiltered answers, played on one TV and everyone's phones.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SINFILTRO_BIND)")
	fs.StringVar(&cfg.defaultMode, "default-mode", "classic", "game mode for new rooms (env: SINFILTRO_DEFAULT_MODE)")
	fs.DurationVar(&cfg.finishedGrace, "finished-grace", 15*time.Minute, "time before a finished room's code may be reused (env: SINFILTRO_FINISHED_GRACE)")
	fs.DurationVar(&cfg.generateTimeout, "generate-timeout", 10*time.Second, "timeout for answer generation requests (env: SINFILTRO_GENERATE_TIMEOUT)")
	fs.StringVar(&cfg.generateToken, "generate-token", "", "bearer token for the answer generation endpoint (env: SINFILTRO_GENERATE_TOKEN)")
	fs.StringVar(&cfg.generateURL, "generate-url", "", "answer generation endpoint; empty uses canned fillers (env: SINFILTRO_GENERATE_URL)")
	fs.DurationVar(&cfg.heartbeatInterval, "heartbeat-interval", 2*time.Minute, "how often a live room refreshes its activity stamp (env: SINFILTRO_HEARTBEAT_INTERVAL)")
	fs.DurationVar(&cfg.inactiveTimeout, "inactive-timeout", 2*time.Hour, "time before an inactive room's code may be reused (env: SINFILTRO_INACTIVE_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SINFILTRO_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SINFILTRO_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SINFILTRO_PROFILE)")
	fs.DurationVar(&cfg.revealDelay, "reveal-delay", 10*time.Second, "how long a revealed match stays on screen (env: SINFILTRO_REVEAL_DELAY)")
	fs.DurationVar(&cfg.roomMaxAge, "room-max-age", 4*time.Hour, "hard ceiling on room lifetime (env: SINFILTRO_ROOM_MAX_AGE)")
	fs.DurationVar(&cfg.submitGrace, "submit-grace", 2*time.Second, "grace for in-flight submissions before answers are filled (env: SINFILTRO_SUBMIT_GRACE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SINFILTRO_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SINFILTRO_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SINFILTRO_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SINFILTRO_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("sinfiltro v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
