package engine

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pha-linkage/internal/aggregate"
	"github.com/pha-linkage/internal/config"
	"github.com/pha-linkage/internal/normalize"
	"github.com/pha-linkage/internal/phonetics"
	"github.com/pha-linkage/internal/record"
)

// Pipeline runs the identity-normalization stages over an in-memory
// record set: field normalization, identifier classification, name
// decomposition and key generation row-locally, then the per-identity
// aggregation. Each run recomputes every derived column from the raw
// fields, so re-running on the same input yields identical output.
type Pipeline struct {
	fields  *config.Fields
	workers int
}

// NewPipeline creates a pipeline with the given field role configuration.
// Workers <= 0 uses one worker per CPU.
func NewPipeline(fields *config.Fields, workers int) *Pipeline {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{fields: fields, workers: workers}
}

// Run executes stages 1 through 5 over the record set. The row-local
// stages are sharded across workers by row range; the aggregation stage
// runs serially because it joins group results back onto member rows.
// Record slice order is preserved and only derived fields are written.
func (p *Pipeline) Run(records []*record.PersonPeriod) error {
	if len(records) == 0 {
		return nil
	}

	chunk := (len(records) + p.workers - 1) / p.workers

	var g errgroup.Group
	for start := 0; start < len(records); start += chunk {
		end := start + chunk
		if end > len(records) {
			end = len(records)
		}
		shard := records[start:end]

		g.Go(func() error {
			for _, rec := range shard {
				if err := p.normalizeRow(rec); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	aggregate.Apply(records)
	return nil
}

// normalizeRow applies the row-local stages to one record. Every derived
// value is a pure function of the record's own raw fields.
func (p *Pipeline) normalizeRow(rec *record.PersonPeriod) error {
	schema, err := p.fields.ForSource(rec.Source)
	if err != nil {
		return fmt.Errorf("record %d: %w", rec.ID, err)
	}

	normalize.Fields(rec, schema.TextColumns)
	normalize.ClassifyIdentifiers(rec)
	normalize.Decompose(rec)

	rec.NamePhoneticKey = phonetics.Soundex(rec.LastNameClean)
	rec.NamePrefixKey = phonetics.NamePrefix(rec.LastNameClean)

	return nil
}
