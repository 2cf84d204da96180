package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"zonys/identity"
	"zonys/util"
	"zonys/util/sigterm"
)

var (
	zoneBase string
	errFile  string

	// appCtx is canceled on SIGTERM/SIGINT so a command in flight gets a
	// chance to unwind (stop hooks, cleanup) instead of being killed
	// mid-jail-operation. cobra v1.0.0 predates Command.Context/
	// ExecuteContext, so it's threaded manually rather than through cobra.
	appCtx context.Context
)

var rootCmd = &cobra.Command{
	Use:   "zonys",
	Short: "Another execution environment manager for the FreeBSD operating system",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var (
			errFile = viper.GetString("log.error-file")
			errOut  = viper.GetBool("log.error-stderr")
		)

		if err := util.InitFatalLogWriter(errFile, errOut); err != nil {
			return fmt.Errorf("initializing fatal log writer: %w", err)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		util.CloseLogWriter()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage: true,
}

func Execute() {
	appCtx = sigterm.CancelContext(context.Background())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorChain(err))
		os.Exit(1)
	}
}

// runCtx is the context commands.go threads into every zone operation
// that runs hooks. Set by Execute before rootCmd.Execute runs.
func runCtx() context.Context {
	if appCtx == nil {
		return context.Background()
	}

	return appCtx
}

// errorChain renders err alongside every layer wrapped around it, root
// cause last, per spec.md §7's "CLI prints the error chain".
func errorChain(err error) string {
	var layers []string

	for err != nil {
		layers = append(layers, err.Error())

		unwrapped := errorsUnwrap(err)
		if unwrapped == nil {
			break
		}

		err = unwrapped
	}

	return strings.Join(layers, "\n  caused by: ")
}

func errorsUnwrap(err error) error {
	type unwrapper interface{ Unwrap() error }

	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}

	return nil
}

// currentBase parses the --base flag into the identity.Base every
// subcommand resolves zones under.
func currentBase() identity.Base {
	trimmed := strings.Trim(zoneBase, "/")
	if trimmed == "" {
		return identity.Base{}
	}

	return identity.Base(strings.Split(trimmed, "/"))
}

func stdinReader() io.Reader {
	return os.Stdin
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&zoneBase, "base", "tank/zonys", "base path zones are rooted under")
	rootCmd.PersistentFlags().Bool("log.error-stderr", false, "log fatal errors to STDERR")

	home, err := homedir.Dir()
	if err != nil {
		home = ""
	}

	if uid := currentUID(); uid == "0" {
		os.MkdirAll("/var/log/zonys", 0755)
		rootCmd.PersistentFlags().StringVar(&errFile, "log.error-file", "/var/log/zonys/error.log", "log fatal errors to file")
	} else {
		rootCmd.PersistentFlags().StringVar(&errFile, "log.error-file", fmt.Sprintf("%s/.zonys.err", home), "log fatal errors to file")
	}

	viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")

	home, err := homedir.Dir()
	if err == nil {
		viper.AddConfigPath(home + "/.config/zonys")
	}

	viper.AddConfigPath("/etc/zonys")

	viper.SetEnvPrefix("ZONYS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())

		applyFileSettings()
	}
}

// fileSettings mirrors the config-file keys zonys honors. Decoded by
// hand via mapstructure, with WeaklyTypedInput so a config file that
// spells "base" as a non-string scalar still coerces cleanly.
type fileSettings struct {
	Base string `mapstructure:"base"`
	Log  struct {
		ErrorFile   string `mapstructure:"error-file"`
		ErrorStderr bool   `mapstructure:"error-stderr"`
	} `mapstructure:"log"`
}

func applyFileSettings() {
	var settings fileSettings

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &settings,
	})
	if err != nil {
		return
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return
	}

	if settings.Base != "" && !rootCmd.PersistentFlags().Changed("base") {
		zoneBase = settings.Base
	}
}

func currentUID() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}

	return u.Uid
}
