// Command stepviz serves AES and ECDSA step visualizations over HTTP and
// offers a few offline helpers around the same packages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kochabx/stepviz/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configFile string
	configDirs []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "stepviz",
		Short:         "Step-by-step AES and ECDSA visualization server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "stepviz.yaml", "configuration file")
	flags.StringSliceVar(&opts.configDirs, "config-dir", []string{".", "/etc/stepviz"}, "directories searched for a bare config file name")

	root.AddCommand(serveCmd(opts), curvesCmd(opts), convertCmd())
	return root
}

// load reads the settings file into s.
func (o *rootOptions) load(s *config.Settings, extra ...config.Option) (*config.Config, error) {
	opts := append([]config.Option{config.WithFile(o.configFile, o.configDirs...)}, extra...)
	cfg := config.New(s, opts...)
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}
