package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelListCmd)
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect configured models",
}

var modelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured model endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		type row struct {
			name, baseURL string
			isDefault     bool
		}
		rows := []row{{cfg.LLM.Model, cfg.LLM.BaseURL, true}}
		names := make([]string, 0, len(cfg.Models))
		for name := range cfg.Models {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if name == cfg.LLM.Model {
				continue
			}
			rows = append(rows, row{name, cfg.Models[name].BaseURL, false})
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tBASE URL\tDEFAULT")
		for _, r := range rows {
			marker := ""
			if r.isDefault {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.name, r.baseURL, marker)
		}
		return w.Flush()
	},
}
