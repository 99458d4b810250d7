/*
Copyright © 2025 juridia
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "legal-assistant-be",
	Short: "Backend for the legal assistant chatbot",
	Long: `Backend for the legal assistant chatbot.

Answers user questions over an indexed legal corpus: documents are chunked,
embedded and stored in a vector index, and each question is answered by the
model grounded on the retrieved passages.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file")
}
