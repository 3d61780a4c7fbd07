package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom/internal/session"
)

var editWorkspaceName string

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Open a CSV/TSV file in an interactive editing session",
	Long: `Starts a line-oriented editing session. Each line you type is routed
as an instruction: control commands (undo, redo, save, export), local
formatting directives, or free-text requests delegated to the remote
analysis service. Type "quality" for a data quality report, "quit" to leave.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		name := editWorkspaceName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		s := session.New(cfg, name, logger)
		if err := s.LoadCSV(path, delimiterFromConfig()); err != nil {
			return err
		}
		ds := s.Dataset()
		fmt.Printf("Loaded %d rows × %d columns from %s\n", ds.Rows(), ds.Cols(), path)
		fmt.Println(`Type an instruction ("help" for examples, "quit" to exit).`)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			switch strings.ToLower(line) {
			case "":
				continue
			case "quit", "exit":
				return nil
			case "help":
				printSessionHelp()
				continue
			case "quality":
				fmt.Print(s.Quality(false).Markdown())
				continue
			case "quality!":
				fmt.Print(s.Quality(true).Markdown())
				continue
			}
			out := s.Execute(context.Background(), line)
			marker := "✓"
			if !out.Success {
				marker = "✗"
			}
			fmt.Printf("%s [%s, %dms] %s\n", marker, out.Decision, out.ElapsedMs, out.Message)
		}
		return scanner.Err()
	},
}

func printSessionHelp() {
	fmt.Println(`Examples:
  undo / redo                     step through the edit history
  save / export                   persist the workspace / write a CSV
  autofit columns                 local formatting, no remote call
  make column b wider             adjust one column's width
  remove duplicates               delegated to the analysis service
  show me a trend analysis        delegated to the analysis service
  quality                         print the data quality report
  quality!                        recompute the report, bypassing the cache`)
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVarP(&editWorkspaceName, "workspace", "w", "", "workspace name (default is the file name)")
}
