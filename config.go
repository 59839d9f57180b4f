/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "EXOCHAT"

type Config struct {
	api         string
	chat        string
	credentials string
	debugBind   string
	profile     bool
	timeout     time.Duration
	verbose     bool
	version     bool
	web         string
}

func (c *Config) validate() error {
	if c.timeout <= 0 {
		return fmt.Errorf("invalid timeout (must be positive): %s", c.timeout)
	}
	if c.credentials == "" {
		return errors.New("--credentials must not be empty")
	}
	for name, raw := range map[string]string{"api": c.api, "chat": c.chat, "web": c.web} {
		if raw == "" && name != "api" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid --%s url: %q", name, raw)
		}
	}
	return nil
}

// origin returns the API base with its trailing /api path removed.
func (c *Config) origin() *url.URL {
	u, err := url.Parse(c.api)
	if err != nil {
		return &url.URL{Scheme: "http", Host: "localhost:5000"}
	}
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/api")
	u.RawQuery = ""
	return u
}

// chatEndpoint is the websocket URL of the chat relay.
func (c *Config) chatEndpoint() string {
	if c.chat != "" {
		return c.chat
	}
	u := c.origin()
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	return u.String()
}

// chatroomPage is the browser URL of a chat room, used for sharing.
func (c *Config) chatroomPage(room string) string {
	var u *url.URL
	if c.web != "" {
		u, _ = url.Parse(c.web)
	}
	if u == nil {
		u = c.origin()
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/chatroom.html"
	u.RawQuery = url.Values{"room": []string{room}}.Encode()
	return u.String()
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "exochat", "credentials.yaml")
}

// bindFlags fills every unset flag from its EXOCHAT_* environment variable.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func normalizeFlags(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "exochat",
		Short:         "Explore exoplanets, read the blog, and chat with fellow citizens from your terminal.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(v, cmd.Flags())

			if err := cfg.validate(); err != nil {
				return err
			}

			logf(cfg, "START: exochat v%s (%s)", releaseVersion, cmd.Name())

			if cfg.profile {
				return startDebugServer(cmd.Context(), cfg)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(normalizeFlags)

	fs.StringVar(&cfg.api, "api", "http://localhost:5000/api", "base url of the rest api (env: EXOCHAT_API)")
	fs.StringVar(&cfg.chat, "chat", "", "websocket url of the chat relay, derived from --api if empty (env: EXOCHAT_CHAT)")
	fs.StringVar(&cfg.credentials, "credentials", defaultCredentialsPath(), "path to the stored credential file (env: EXOCHAT_CREDENTIALS)")
	fs.StringVar(&cfg.debugBind, "debug-bind", "127.0.0.1:6060", "address for the debug server (env: EXOCHAT_DEBUG_BIND)")
	fs.BoolVar(&cfg.profile, "profile", false, "serve net/http/pprof handlers on --debug-bind (env: EXOCHAT_PROFILE)")
	fs.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "timeout for api requests and the chat handshake (env: EXOCHAT_TIMEOUT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: EXOCHAT_VERBOSE)")
	fs.StringVar(&cfg.web, "web", "", "base url of the website, derived from --api if empty (env: EXOCHAT_WEB)")

	cmd.Flags().BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: EXOCHAT_VERSION)")

	cmd.AddCommand(
		newLoginCmd(cfg),
		newRegisterCmd(cfg),
		newLogoutCmd(cfg),
		newWhoamiCmd(cfg),
		newPlanetsCmd(cfg),
		newPlanetCmd(cfg),
		newBlogsCmd(cfg),
		newChatCmd(cfg),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("exochat v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
