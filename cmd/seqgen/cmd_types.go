package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hlop3z/seqgen/internal/cli"
	"github.com/hlop3z/seqgen/internal/types"
)

// typesCmd prints the datatype to DataTypes mapping.
func typesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List how column datatypes map to Sequelize DataTypes",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := types.All()
			out := cmd.OutOrStdout()

			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(defs)
			}

			t := cli.NewTable("DataTypes", "Datatypes", "TS", "Description")
			for _, d := range defs {
				tags := make([]string, len(d.Tags))
				for i, tag := range d.Tags {
					tags[i] = string(tag)
				}
				t.AddRow(d.Name, strings.Join(tags, ", "), d.TSType, d.Document)
			}
			t.Render(out)
			fmt.Fprintf(out, "Unknown datatypes fall back to %s.\n",
				cli.Code("DataTypes."+types.Fallback+".BINARY"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
