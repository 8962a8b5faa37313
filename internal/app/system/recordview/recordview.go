// Package recordview shapes stored records for display.
package recordview

import (
	"sort"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// IDField is the store-assigned identifier hidden from display.
const IDField = "_id"

// StripIDs returns copies of records without the identifier field. The input
// is not modified. A nil input gives an empty, non-nil slice.
func StripIDs(records []bson.M) []bson.M {
	out := make([]bson.M, 0, len(records))
	for _, rec := range records {
		cp := make(bson.M, len(rec))
		for k, v := range rec {
			if k == IDField {
				continue
			}
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// Columns returns the sorted union of field names across records.
func Columns(records []bson.M) []string {
	seen := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// ParseDocument decodes one relaxed Extended JSON object. Empty input or JSON
// null gives a nil document, which the record operations reject as absent.
func ParseDocument(field string, raw []byte) (bson.M, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, errors.Wrapf(err, "%s must be a JSON object", field)
	}
	if doc == nil {
		doc = bson.M{}
	}
	return doc, nil
}
