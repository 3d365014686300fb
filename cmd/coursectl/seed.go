package main

import (
	"log"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()
		log.Printf("schema ready (db=%s)", d.Driver)
		return nil
	},
}

var partCmd = &cobra.Command{
	Use:   "part",
	Short: "Manage course parts",
}

var partAddCmd = &cobra.Command{
	Use:   "add <id> <title>",
	Short: "Add or rename a part",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, _ := cmd.Flags().GetString("course")
		d, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()
		_, err = d.SQL.ExecContext(cmd.Context(), `INSERT INTO parts (id,course_id,title) VALUES ($1,$2,$3)
			ON CONFLICT (id) DO UPDATE SET course_id=EXCLUDED.course_id, title=EXCLUDED.title`,
			args[0], course, args[1])
		return err
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <id> [name]",
	Short: "Add or rename a user",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		d, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()
		_, err = d.SQL.ExecContext(cmd.Context(), `INSERT INTO users (id,name) VALUES ($1,$2)
			ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name`, args[0], name)
		return err
	},
}

func init() {
	partAddCmd.Flags().String("course", "", "Course the part belongs to")
	partCmd.AddCommand(partAddCmd)
	userCmd.AddCommand(userAddCmd)
}
