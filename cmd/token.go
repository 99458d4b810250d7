/*
Copyright © 2025 juridia
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/juridia/legal-assistant-be/utils"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate an access token for the API",
	Long: `Generates a signed JWT accepted by the chat routes. Accounts are managed
outside this backend; this command exists for development and integration setups.`,
	Run: func(cmd *cobra.Command, args []string) {
		username, _ := cmd.Flags().GetString("username")
		fullName, _ := cmd.Flags().GetString("full-name")
		role, _ := cmd.Flags().GetString("role")

		token, err := utils.GenerateUserToken(uuid.NewString(), username, fullName, role)
		if err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}
		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringP("username", "u", "dev", "username claim")
	tokenCmd.Flags().String("full-name", "", "full name claim")
	tokenCmd.Flags().StringP("role", "r", "user", "role claim")
}
