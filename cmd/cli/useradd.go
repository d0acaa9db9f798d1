package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/auth"
	"github.com/ToxicGLaDOS/mtg-collection-tracker/internal/database"
)

var useraddPassword string

// useraddCmd represents the useradd command
var useraddCmd = &cobra.Command{
	Use:     "useradd <username>",
	Short:   "Create a user account",
	Example: `  collection-tracker useradd alice`,
	Args:    cobra.ExactArgs(1),
	RunE:    runUseradd,
}

func init() {
	rootCmd.AddCommand(useraddCmd)

	useraddCmd.Flags().StringVar(&useraddPassword, "password", "", "Password for the new user (prompted when omitted)")
}

func runUseradd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	username := args[0]

	password := useraddPassword
	if password == "" {
		fmt.Print("Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	svc := auth.NewService(database.Pool(), auth.TokenService{})
	userID, err := svc.CreateUser(ctx, username, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info().Str("username", username).Str("id", userID).Msg("User created")
	return nil
}
