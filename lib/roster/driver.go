package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("civiroster.lib.roster")

// Progress is reported once per entity after its extraction settles.
// err is non-nil when the entity fell back to its discovery seed.
type Progress func(index, total int, rec Record, err error)

// Driver runs one source end to end, strictly sequentially: discovery,
// then one detail fetch + extraction per stub. A failed entity is
// emitted with extraction fields defaulted from its seed and the run
// proceeds; there is no retry state.
type Driver struct {
	Source     Source
	OnProgress Progress
}

// Run returns the records collected during this run. The slice is
// meaningful even when err is non-nil: discovery failures keep the
// stubs found so far, and a chief-executive ambiguity is reported
// without discarding the output.
func (d Driver) Run(ctx context.Context) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(attribute.String("source", d.Source.Name()))

	var errs []error

	stubs, err := d.Source.Discover(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discovery aborted early")
		slog.ErrorContext(
			ctx, "discovery aborted early, keeping partial result",
			"source", d.Source.Name(),
			"found", len(stubs),
			"err", err,
		)
		errs = append(errs, fmt.Errorf("discover %s: %w", d.Source.Name(), err))
	}

	// dropped stubs are excluded before the extraction loop so the
	// reported index/total sequence stays contiguous
	named := make([]Stub, 0, len(stubs))
	for _, stub := range stubs {
		if stub.Name == "" && stub.Seed.Name == "" {
			slog.WarnContext(
				ctx, "dropping stub without a resolvable name",
				"source", d.Source.Name(),
				"url", stub.DetailURL,
			)
			continue
		}
		named = append(named, stub)
	}

	records := make([]Record, 0, len(named))
	for i, stub := range named {
		rec, err := d.extractEntity(ctx, stub)
		if err != nil {
			slog.ErrorContext(
				ctx, "entity extraction failed, emitting defaults",
				"source", d.Source.Name(),
				"name", stub.Name,
				"url", stub.DetailURL,
				"err", err,
			)
			rec = d.seedRecord(stub)
		}
		rec = Normalize(rec)
		records = append(records, rec)

		if d.OnProgress != nil {
			d.OnProgress(i+1, len(named), rec, err)
		}
	}

	if err := ValidateChiefExecutive(records); err != nil {
		span.RecordError(err)
		errs = append(errs, err)
	}

	return records, errors.Join(errs...)
}

func (d Driver) extractEntity(ctx context.Context, stub Stub) (Record, error) {
	ctx, span := tracer.Start(ctx, "extractEntity")
	defer span.End()
	span.SetAttributes(
		attribute.String("name", stub.Name),
		attribute.String("url", stub.DetailURL),
	)

	detail, err := d.Source.FetchDetail(ctx, stub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail fetch failed")
		return Record{}, fmt.Errorf("fetch detail: %w", err)
	}
	rec, err := d.Source.Extract(ctx, stub, detail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return Record{}, fmt.Errorf("extract: %w", err)
	}
	return rec, nil
}

// seedRecord is the "extracted with defaults" shape of a failed
// entity: whatever discovery already knew, with every extraction-only
// field left empty.
func (d Driver) seedRecord(stub Stub) Record {
	rec := stub.Seed
	if rec.Organization == "" {
		rec.Organization = d.Source.Organization()
	}
	if rec.Name == "" {
		rec.Name = stub.Name
	}
	if rec.SourceURL == "" {
		rec.SourceURL = stub.DetailURL
	}
	if rec.PersonID == "" {
		rec.PersonID = stub.PersonID
	}
	return rec
}
