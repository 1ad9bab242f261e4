// Package commands implements the gitwalk command tree.
package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitwalk/internal/config"
	"gitwalk/internal/logger"
)

type rootOpts struct {
	cfgFile     string
	debugModeOn bool
	traceModeOn bool
	logFormat   string
	hideLogTime bool
	colorMode   string

	v *viper.Viper
}

const (
	colorModeNever  = "never"
	colorModeAlways = "always"
)

var longRootCmdDescription = `gitwalk measures how fast many concurrent walkers can descend the ancestry
of a commit to a root commit. Each round launches a batch of walkers from the
same starting commit and times how long it takes until all of them report.
`

// NewRootCmd builds the command tree with its own configuration state.
func NewRootCmd() *cobra.Command {
	opts := &rootOpts{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "gitwalk",
		Short:         "Benchmark concurrent ancestor walks over a commit graph.",
		Long:          longRootCmdDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.LogOptions{
				Verbose:      opts.debugModeOn,
				Trace:        opts.traceModeOn,
				Format:       opts.logFormat,
				DisableColor: opts.colorMode == colorModeNever,
				HideTime:     opts.hideLogTime,
				Output:       cmd.ErrOrStderr(),
			})
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "YAML config file")
	flags.BoolVarP(&opts.debugModeOn, "debug", "d", false, "turn on debug mode")
	flags.BoolVar(&opts.traceModeOn, "trace", false, "log every forced gc and per-visit detail")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format, text or json")
	flags.BoolVar(&opts.hideLogTime, "hide-time", false, "hide the log time")
	flags.StringVar(&opts.colorMode, "color", colorModeAlways, fmt.Sprintf("set the log color mode, one of %v", []string{colorModeNever, colorModeAlways}))

	rootCmd.AddCommand(
		newBenchCmd(opts),
		newWalkCmd(opts),
		newLogCmd(opts),
		newShowCmd(opts),
		newSeedCmd(),
		newInitCmd(),
		newCommitCmd(),
		newMergeCmd(),
		newCheckoutCmd(),
		newBranchCmd(),
	)
	return rootCmd
}

// load binds the flags of cmd named in bindings and decodes the configuration.
// Binding happens at run time because several commands share keys.
func (o *rootOpts) load(cmd *cobra.Command, bindings ...map[string]string) (*config.Config, error) {
	for _, b := range bindings {
		for key, name := range b {
			f := cmd.Flags().Lookup(name)
			if f == nil {
				continue
			}
			if err := o.v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	return config.Load(o.v, o.cfgFile)
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logrus.Errorf("gitwalk: %v", err)
		os.Exit(1)
	}
}
