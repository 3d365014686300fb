package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-coursetests/internal/coursetest"
)

var checkCmd = &cobra.Command{
	Use:   "check <user> <test> <alternative>",
	Short: "Grade a user's answer to a test",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		showAttempts, _ := cmd.Flags().GetBool("attempts")
		return withService(cmd.Context(), func(svc *coursetest.Service) error {
			ok, err := svc.CheckTest(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if ok {
				fmt.Println("CORRECT")
			} else {
				fmt.Println("WRONG")
			}
			if !showAttempts {
				return nil
			}
			attempts, err := svc.Attempts(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			for _, a := range attempts {
				fmt.Printf("#%d %s %d\n", a.TestNumber, a.TestResult, a.CreatedAt)
			}
			return nil
		})
	},
}

func init() {
	checkCmd.Flags().Bool("attempts", false, "Print the recorded attempts afterwards")
}
