package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dalemusser/stratashelter/internal/app/system/recordview"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecords writes records as relaxed Extended JSON lines or as a table
// whose columns are the union of every record's fields.
func printRecords(w io.Writer, format string, records []bson.M) error {
	switch format {
	case "", "json":
		for _, rec := range records {
			b, err := bson.MarshalExtJSON(rec, false, false)
			if err != nil {
				return errors.Wrap(err, "encode record")
			}
			if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
				return err
			}
		}
		return nil
	case "table":
		return printTable(w, records)
	default:
		return errors.Errorf("unknown output format %q (want json or table)", format)
	}
}

func printTable(w io.Writer, records []bson.M) error {
	cols := recordview.Columns(records)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, col := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprintln(tw)
	for _, rec := range records {
		for i, col := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			if v, ok := rec[col]; ok {
				fmt.Fprint(tw, v)
			}
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
