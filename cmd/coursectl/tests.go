package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-coursetests/internal/coursetest"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Manage the tests of a part",
}

var testAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a test at the end of a part",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := coursetest.NewTest{}
		in.PartID, _ = cmd.Flags().GetString("part")
		in.Title, _ = cmd.Flags().GetString("title")
		in.Question, _ = cmd.Flags().GetString("question")
		in.CorrectAlternative, _ = cmd.Flags().GetString("correct")
		alts, _ := cmd.Flags().GetStringArray("alt")
		parsed, err := parseAlternatives(alts)
		if err != nil {
			return err
		}
		in.Alternatives = parsed

		return withService(cmd.Context(), func(svc *coursetest.Service) error {
			t, err := svc.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(t)
		})
	},
}

var testUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of a test; unset flags are left alone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in coursetest.TestUpdate
		flags := cmd.Flags()
		str := func(name string) *string {
			if !flags.Changed(name) {
				return nil
			}
			v, _ := flags.GetString(name)
			return &v
		}
		in.PartID = str("part")
		in.Title = str("title")
		in.Question = str("question")
		in.CorrectAlternative = str("correct")
		if flags.Changed("alt") {
			alts, _ := flags.GetStringArray("alt")
			parsed, err := parseAlternatives(alts)
			if err != nil {
				return err
			}
			in.Alternatives = parsed
		}

		return withService(cmd.Context(), func(svc *coursetest.Service) error {
			t, err := svc.Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return printJSON(t)
		})
	},
}

var testDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a test and close the gap in its part",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *coursetest.Service) error {
			return svc.Delete(cmd.Context(), args[0])
		})
	},
}

var testGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a test by id, or by --part and --seq",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		part, _ := cmd.Flags().GetString("part")
		seq, _ := cmd.Flags().GetInt("seq")
		if len(args) == 0 && (part == "" || seq < 1) {
			return fmt.Errorf("give a test id or both --part and --seq")
		}
		return withService(cmd.Context(), func(svc *coursetest.Service) error {
			var (
				t   coursetest.Test
				err error
			)
			if len(args) == 1 {
				t, err = svc.Get(cmd.Context(), args[0])
			} else {
				t, err = svc.FindByPartAndSequence(cmd.Context(), part, seq)
			}
			if err != nil {
				return err
			}
			return printJSON(t)
		})
	},
}

var testListCmd = &cobra.Command{
	Use:   "list <part>",
	Short: "List the tests of a part in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *coursetest.Service) error {
			tests, err := svc.ListByPart(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%-4s %-36s %s\n", "SEQ", "ID", "TITLE")
			for _, t := range tests {
				fmt.Printf("%-4d %-36s %s\n", t.SequenceNumber, t.ID, t.Title)
			}
			return nil
		})
	},
}

// parseAlternatives reads KEY=TEXT pairs.
func parseAlternatives(in []string) ([]coursetest.Alternative, error) {
	out := make([]coursetest.Alternative, 0, len(in))
	for _, s := range in {
		key, text, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("bad alternative %q, want KEY=TEXT", s)
		}
		out = append(out, coursetest.Alternative{Key: strings.TrimSpace(key), Text: text})
	}
	return out, nil
}

func init() {
	for _, c := range []*cobra.Command{testAddCmd, testUpdateCmd} {
		c.Flags().String("part", "", "Part id")
		c.Flags().String("title", "", "Title, unique within the part")
		c.Flags().String("question", "", "Question text")
		c.Flags().String("correct", "", "Key of the correct alternative")
		c.Flags().StringArray("alt", nil, "Alternative as KEY=TEXT (repeatable)")
	}
	_ = testAddCmd.MarkFlagRequired("part")
	_ = testAddCmd.MarkFlagRequired("title")
	_ = testAddCmd.MarkFlagRequired("correct")

	testGetCmd.Flags().String("part", "", "Part id, with --seq")
	testGetCmd.Flags().Int("seq", 0, "Sequence number within --part")

	testCmd.AddCommand(testAddCmd, testUpdateCmd, testDeleteCmd, testGetCmd, testListCmd)
}
