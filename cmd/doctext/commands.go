package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zombor/invoice-extractor/internal/convert"
	"github.com/zombor/invoice-extractor/internal/document"
	"github.com/zombor/invoice-extractor/internal/remote"
	"github.com/zombor/invoice-extractor/internal/workspace"
)

func newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <record.json>",
		Short: "Render a backend JSON record as editable text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			text, err := document.FormatJSON(data)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func newParseCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "parse <text-file>",
		Short: "Parse edited text back into a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := document.Parse(string(data))
			if err != nil {
				return err
			}

			switch output {
			case "json":
				out, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			case "yaml":
				out, err := toYAML(doc)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			default:
				return fmt.Errorf("unknown output format %q (want json or yaml)", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")
	return cmd
}

// toYAML renders a record as block-style YAML with the JSON field names and order
func toYAML(doc document.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decoding JSON as YAML: %w", err)
	}
	blockStyle(&node)

	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return out, nil
}

// blockStyle clears the flow and quoting styles carried over from JSON
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func newCSVCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "csv <text-file>",
		Short: "Export edited text as the CSV download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return fmt.Errorf("%s", workspace.MsgNoDownload)
			}
			doc, err := document.Parse(string(data))
			if err != nil {
				return err
			}
			content := document.ToCSV(doc)

			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), content)
				return err
			}
			if info, statErr := os.Stat(out); statErr == nil && info.IsDir() {
				out = filepath.Join(out, document.CSVFilename(doc, time.Now()))
			}
			if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing CSV: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write to this file, or into this directory under the download name (default stdout)")
	return cmd
}

func newExtractCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Send an invoice or check to the extraction backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			file := remote.File{
				Name:        filepath.Base(args[0]),
				ContentType: convert.DetectMIME(args[0], ""),
				Data:        data,
			}
			doc, err := opts.client().Extract(cmd.Context(), file)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), document.Format(doc))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw record instead of the text")
	return cmd
}

func newSubmitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <text-file>",
		Short: "Add an edited invoice to the Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return fmt.Errorf("%s", workspace.MsgNoUpload)
			}
			doc, err := document.Parse(string(data))
			if err != nil {
				return err
			}
			invoice, ok := doc.(*document.Invoice)
			if !ok {
				return fmt.Errorf("%s", workspace.MsgInvoiceOnly)
			}

			ack, err := opts.client().Submit(cmd.Context(), invoice)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), workspace.MsgSubmitted)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(ack))
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the application version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "doctext %s (%s)\n", version, runtime.Version())
		},
	}
}
