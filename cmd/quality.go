package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom/internal/loader"
	"github.com/KaramelBytes/tabloom/internal/quality"
	"github.com/KaramelBytes/tabloom/internal/utils"
)

var (
	qualityJSON  bool
	qualityDelim string
)

var qualityCmd = &cobra.Command{
	Use:   "quality <file>",
	Short: "Analyze a CSV/TSV and print its data quality report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var delim rune
		switch qualityDelim {
		case "":
			delim = delimiterFromConfig()
		case ",":
			delim = ','
		case ";":
			delim = ';'
		case "\t", "tab":
			delim = '\t'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", qualityDelim)
		}
		ds, err := loader.ReadCSV(args[0], delim)
		if err != nil {
			return err
		}
		rep := quality.Analyze(ds)
		if qualityJSON {
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Print(rep.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(qualityCmd)
	qualityCmd.Flags().BoolVar(&qualityJSON, "json", false, "emit the report as JSON")
	qualityCmd.Flags().StringVar(&qualityDelim, "delimiter", "", "CSV delimiter: , ; or tab")
}
