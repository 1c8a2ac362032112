package cli

import (
	"github.com/spf13/cobra"

	"rosie/internal/config"
	"rosie/internal/platform/logger"
)

// RootOptions son los flags globales.
type RootOptions struct {
	ConfigFile string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "rosie",
		Short:         "Rosie - mascota virtual",
		Long:          "Servidor de Rosie: estado de ánimo de la mascota, recordatorios y preferencias.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "archivo YAML de configuración (default $CONFIG_FILE)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	return config.LoadFrom(opts.ConfigFile)
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
}
