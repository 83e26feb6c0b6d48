package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	partnerapp "github.com/erp/backoffice/internal/application/partner"
	csvimport "github.com/erp/backoffice/internal/infrastructure/import"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPartiesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parties",
		Short: "Manage the entity directory",
	}

	var (
		tenantRef string
		delimiter string
		latin1    bool
		maxErrors int
		dryRun    bool
	)
	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import parties from a CSV export",
		Long: `Import parties from a CSV file with a header row. Portuguese and English
column names are accepted (nome/name, nif/tax_id, tipo or cliente/fornecedor,
morada/address, ...). Rows with a numero keep it and the entities counter is
adopted past the largest one; rows without a numero are numbered after them.

Rows that fail to parse or are rejected by the directory are reported and
skipped; the rest are imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []csvimport.ParserOption
			if delimiter != "" {
				d, size := utf8.DecodeRuneInString(delimiter)
				if size != len(delimiter) {
					return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
				}
				opts = append(opts, csvimport.WithDelimiter(d))
			}
			if latin1 {
				opts = append(opts, csvimport.WithLatin1Fallback())
			}

			records, rowErrs, err := readParties(args[0], maxErrors, opts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range rowErrs.Errors() {
				fmt.Fprintf(out, "line %d\t%s\t%s\n", e.Row, e.Code, e.Error())
			}
			if rowErrs.IsTruncated() {
				fmt.Fprintf(out, "... %d more row errors\n", rowErrs.TotalCount()-len(rowErrs.Errors()))
			}
			if dryRun {
				fmt.Fprintf(out, "parsed=%d invalid=%d\n", len(records), rowErrs.TotalCount())
				return nil
			}
			if tenantRef == "" {
				return errors.New("--tenant is required unless --dry-run is set")
			}
			if a.cfg.Crypto.Key == "" {
				return errors.New("crypto.key must be configured to import parties")
			}

			services, closeDB, err := a.openServices()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := cmd.Context()
			tc, err := services.Tenants.ResolveContext(ctx, tenantRef)
			if err != nil {
				return err
			}
			result, err := services.Imports.Import(ctx, tc, importRecords(records))
			if result != nil {
				for _, f := range result.Failures {
					fmt.Fprintf(out, "line %d\t%s\t%s\n", f.Line, f.Code, f.Message)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "created=%d rejected=%d invalid=%d next_numero=%d\n",
				result.Created, len(result.Failures), rowErrs.TotalCount(), result.NextNumero)
			a.log.Info("parties import finished",
				zap.String("file", args[0]),
				zap.String("tenant", tc.ScopeKey()),
				zap.Int("created", result.Created),
			)
			return nil
		},
	}
	importCmd.Flags().StringVarP(&tenantRef, "tenant", "t", "", "Tenant id or slug")
	importCmd.Flags().StringVar(&delimiter, "delimiter", "", "Field delimiter; detected from the header when omitted")
	importCmd.Flags().BoolVar(&latin1, "latin1", false, "Decode files that are not UTF-8 as Windows-1252")
	importCmd.Flags().IntVar(&maxErrors, "max-errors", 100, "Row errors to print")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate the file without importing")

	cmd.AddCommand(importCmd)
	return cmd
}

func readParties(path string, maxErrors int, opts ...csvimport.ParserOption) ([]csvimport.PartyRecord, *csvimport.ErrorCollection, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		r = f
	}
	records, rowErrs, err := csvimport.ReadParties(r, maxErrors, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, rowErrs, nil
}

func importRecords(records []csvimport.PartyRecord) []partnerapp.ImportRecord {
	out := make([]partnerapp.ImportRecord, len(records))
	for i, r := range records {
		out[i] = partnerapp.ImportRecord{Line: r.Line, Numero: r.Numero, Draft: r.Draft}
	}
	return out
}
