package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jsphweid/handcomposer/chord"
	"github.com/jsphweid/handcomposer/config"
	"github.com/jsphweid/handcomposer/model"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <root> <quality>",
	Short: "Prints the chord a root and quality would produce",
	Long: `Prints the chord a root and quality would produce, e.g.

  handcomposer inspect 74 7`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := strconv.Atoi(args[0])
		if err != nil || root < 0 || root > 127 {
			return fmt.Errorf("root %q is not a MIDI note", args[0])
		}
		q, err := model.ParseQuality(args[1])
		if err != nil {
			return err
		}
		Inspect(cmd.OutOrStdout(), cfg.Voicing, root, q)
		return nil
	},
}

func Inspect(w io.Writer, voicing config.Range, root int, q model.Quality) {
	built := chord.Build(root, q)
	voiced := chord.Voice(built, voicing.Low, voicing.High)
	fmt.Fprintf(w, "intervals: %v\n", chord.Intervals(q))
	fmt.Fprintf(w, "built:     %v\n", built)
	fmt.Fprintf(w, "voiced:    %v\n", voiced)
	fmt.Fprintf(w, "label:     %s\n", chord.Label(voiced))
	fmt.Fprintf(w, "key:       %s\n", chord.Key(voiced))
}
