// Package rosterservice is the full-replace publish sink: each run's
// output set becomes the complete current state for an organization.
package rosterservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"civiroster/lib/roster"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/roster")

type Service struct {
	db *sql.DB
}

func NewService(database *sql.DB) Service {
	return Service{db: database}
}

const insertOfficial = `
INSERT INTO officials (
	id, organization, party, district, name,
	primary_role_en, primary_role_fr, secondary_roles,
	email, phone, address, website, photo_url,
	source_url, person_id, published_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Publish replaces the organization's snapshot: it deletes every
// existing row scoped to the organization, then inserts the new set
// row by row. There is deliberately no transaction around the batch,
// so a failure partway through leaves the organization partially
// populated until the next successful run.
func (s Service) Publish(ctx context.Context, organization string, recs []roster.Record) error {
	ctx, span := tracer.Start(ctx, "Publish")
	defer span.End()

	span.SetAttributes(
		attribute.String("organization", organization),
		attribute.Int("records", len(recs)),
	)

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM officials WHERE organization = ?`, organization)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("clear organization %q: %w", organization, err)
	}

	now := time.Now().Unix()
	for _, rec := range recs {
		_, err := s.db.ExecContext(ctx, insertOfficial,
			uuid.NewString(),
			organization,
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
			now,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("insert record %q: %w", rec.SourceURL, err)
		}
	}
	return nil
}

// List returns the organization's current snapshot ordered by name.
func (s Service) List(ctx context.Context, organization string) ([]roster.Record, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	span.SetAttributes(attribute.String("organization", organization))

	rows, err := s.db.QueryContext(ctx, `
		SELECT organization, party, district, name,
			primary_role_en, primary_role_fr, secondary_roles,
			email, phone, address, website, photo_url,
			source_url, person_id
		FROM officials WHERE organization = ? ORDER BY name`,
		organization)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	var recs []roster.Record
	for rows.Next() {
		var rec roster.Record
		var roles string
		err := rows.Scan(
			&rec.Organization,
			&rec.Party,
			&rec.District,
			&rec.Name,
			&rec.PrimaryRoleEN,
			&rec.PrimaryRoleFR,
			&roles,
			&rec.Email,
			&rec.Phone,
			&rec.Address,
			&rec.Website,
			&rec.PhotoURL,
			&rec.SourceURL,
			&rec.PersonID,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		err = json.Unmarshal([]byte(roles), &rec.SecondaryRoles)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("decode secondary roles for %q: %w", rec.SourceURL, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
