package main

import (
	"fmt"

	"github.com/forensic-go/windecode/pkg/ese"
	"github.com/forensic-go/windecode/pkg/sector"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newESECatalogCmd(), newESEDumpCmd())
}

// openESE maps the database file read-only: the B-tree walk that follows
// reads pages all over the file in no particular order.
func openESE(path string) (*ese.File, func() error, error) {
	src, closeFn, err := sector.OpenMapped(path, sector.DefaultSize)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	db, err := ese.Open(src)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return db, closeFn, nil
}

func newESECatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ese-catalog <database>",
		Short: "List every table defined in an ESE database's Catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openESE(args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			catalog, err := db.Catalog()
			if err != nil {
				return fmt.Errorf("reading catalog: %w", err)
			}
			if jsonOut {
				return printJSON(catalog)
			}
			for _, row := range catalog {
				if row.Type == ese.CatalogTable {
					printInfo("%s (objid=%d, root page=%d)\n", row.Name, row.ObjIDTable, row.ColumnOrFDP)
				}
			}
			return nil
		},
	}
}

func newESEDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ese-dump <database> <table>",
		Short: "Dump every row of an ESE table as decoded column values",
		Long: `ese-dump materializes each row of the named table, substituting values
held in the table's long-value tree. A long-value key with no matching
chunks is printed as the base64 of the raw key bytes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openESE(args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			catalog, err := db.Catalog()
			if err != nil {
				return fmt.Errorf("reading catalog: %w", err)
			}
			info, err := ese.BuildTableInfo(catalog, args[1])
			if err != nil {
				return err
			}
			pages, err := db.AllPages(uint32(info.RootPage))
			if err != nil {
				return fmt.Errorf("walking table pages: %w", err)
			}
			printVerbose("table %s spans %d leaf pages\n", args[1], len(pages))
			rows, err := db.Rows(pages)
			if err != nil {
				return fmt.Errorf("reading rows: %w", err)
			}

			lv, err := db.LongValues(info)
			if err != nil {
				warnRow(args[1], err)
			}
			var out []map[string]string
			for _, raw := range rows {
				rec, err := ese.Materialize(raw, info, &lv)
				if err != nil {
					warnRow(args[1], err)
					continue
				}
				if jsonOut {
					out = append(out, rec)
					continue
				}
				for _, col := range info.Columns {
					printInfo("%s=%q ", col.Name, rec[col.Name])
				}
				printInfo("\n")
			}
			if jsonOut {
				return printJSON(out)
			}
			return nil
		},
	}
}
