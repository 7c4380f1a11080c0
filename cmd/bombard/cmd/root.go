// Package cmd wires the bombard binary's subcommands: run (in-process load
// generation), dispatch (submit a job to a running hub), hub and node (the
// two distributed-mode servers), and report (render a finished run's CSV
// report as tables).
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bombard",
	Short: "A distributed HTTP load testing tool",
	Long: `bombard drives scenarios of HTTP requests against a target, locally or
across a fleet of nodes coordinated by a hub.`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bombard.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bombard")
	}

	viper.SetEnvPrefix("BOMBARD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// IsVerbose returns whether verbose output is enabled.
func IsVerbose() bool {
	return viper.GetBool("verbose")
}

func printInfo(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.BlueString("ℹ"), msg)
}

func printSuccess(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.GreenString("✓"), msg)
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("✗"), msg)
}
