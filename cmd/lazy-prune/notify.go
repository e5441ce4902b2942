package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test <name>",
	Short: "Send a test message to a configured notification channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newManager(cmd)
		if err != nil {
			return err
		}
		defer manager.Close()

		if err := manager.TestNotification(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Test notification sent to %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyTestCmd)
}
