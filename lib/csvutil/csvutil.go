// Package csvutil writes roster records as CSV with a fixed column
// layout, one row per elected official.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"

	"civiroster/lib/roster"
)

// Header is the fixed column order of every emitted file. Consumers
// key on these names, so the order is part of the format.
var Header = []string{
	"organization",
	"party",
	"district",
	"name",
	"primary_role_en",
	"primary_role_fr",
	"secondary_roles",
	"email",
	"phone",
	"address",
	"website",
	"photo_url",
	"source_url",
	"person_id",
}

func row(rec roster.Record) []string {
	return []string{
		rec.Organization,
		rec.Party,
		rec.District,
		rec.Name,
		rec.PrimaryRoleEN,
		rec.PrimaryRoleFR,
		rec.SecondaryRoles.JSON(),
		rec.Email,
		rec.Phone,
		rec.Address,
		rec.Website,
		rec.PhotoURL,
		rec.SourceURL,
		rec.PersonID,
	}
}

// Write emits the header row followed by one row per record. The
// header is written even when recs is empty.
func Write(w io.Writer, recs []roster.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range recs {
		if err := cw.Write(row(rec)); err != nil {
			return fmt.Errorf("write csv row for %q: %w", rec.SourceURL, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
