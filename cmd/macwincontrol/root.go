// Package macwincontrol holds the CLI commands. The binary runs either as
// the host (the machine whose mouse and keyboard are shared) or connects
// to a host as the controlled side.
package macwincontrol

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "macwincontrol",
	Short: "Share one mouse and keyboard across two machines",
	Long: `MacWinControl redirects mouse and keyboard input to a second machine on
the local network when the cursor crosses a configured screen edge, and
hands it back when the cursor returns or the escape chord is pressed.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.macwincontrol.yaml)")
	rootCmd.PersistentFlags().String("name", "", "name announced to the peer (default is the hostname)")
	rootCmd.PersistentFlags().Int("port", 0, "wire protocol port")
	rootCmd.PersistentFlags().String("edge", "", "screen edge that switches input: left, right, top or bottom")
	rootCmd.PersistentFlags().String("feed", "", "serve the front-end event feed on this address, e.g. 127.0.0.1:52526")

	for _, name := range []string{"name", "port", "edge", "feed"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".macwincontrol")
	}
	viper.SetEnvPrefix("macwincontrol")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("read config file", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Debug("config file loaded", "file", viper.ConfigFileUsed())
	}
}
