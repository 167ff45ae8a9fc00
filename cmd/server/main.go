package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/content_auth/internal/config"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "auth",
	Short: "Account registration and token service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadDotEnv(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err.Error())
	}
}
