package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zombor/invoice-extractor/internal/remote"
)

const backendEnv = "INVOICE_EXTRACTOR_BACKEND_URL"

// options are the flags shared by every subcommand
type options struct {
	backendURL string
	timeout    time.Duration
}

func (o *options) client() *remote.Client {
	return remote.NewClient(o.backendURL, o.timeout)
}

// newRootCmd builds the doctext command tree
func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "doctext",
		Short: "Work with extracted invoice and check text from the terminal",
		Long: `doctext formats extracted invoice and check records as editable text,
parses edited text back into records, exports CSV, and talks to the
extraction backend.

Example Usage:
  doctext extract scan.pdf > scan.txt    # extract and format a document
  doctext parse scan.txt --output yaml   # show the parsed record
  doctext csv scan.txt --out scan.csv    # export the CSV download
  doctext submit scan.txt                # add an invoice to the workbook`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading .env: %w", err)
			}
			if !cmd.Flags().Changed("backend") {
				if url := os.Getenv(backendEnv); url != "" {
					opts.backendURL = url
				}
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.backendURL, "backend", "http://localhost:8000", "Extraction backend base URL (or set "+backendEnv+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Timeout for backend requests")

	root.AddCommand(
		newFormatCmd(),
		newParseCmd(),
		newCSVCmd(),
		newExtractCmd(opts),
		newSubmitCmd(opts),
		newVersionCmd(),
	)
	return root
}

// readInput reads a file argument, or stdin when it is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
