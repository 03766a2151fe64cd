package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"botshop/config"
	"botshop/database"
	"botshop/models"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewDumpCommand creates the dump command
func NewDumpCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the store document",
		Example: `  botshop dump
  botshop dump --format yaml --data ./data/store.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("invalid format %q: must be json or yaml", format)
			}

			doc, state := database.Load(config.Get().DataFile)
			if state == database.LoadStateCorrupt {
				return fmt.Errorf("store document is unreadable, run repair first")
			}
			return writeDocument(cmd.OutOrStdout(), doc, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format (json|yaml)")
	return cmd
}

// writeDocument renders the document with its persisted field names
func writeDocument(out io.Writer, doc *models.Document, format string) error {
	data, err := database.Encode(doc)
	if err != nil {
		return err
	}
	if format == "json" {
		_, err = out.Write(data)
		return err
	}

	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to convert document: %w", err)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("failed to write yaml: %w", err)
	}
	return enc.Close()
}
