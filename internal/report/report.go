package report

import (
	"nrjtrack/internal/core"
)

// Result holds every stage of one report derivation.
type Result struct {
	Params       Params
	Daily        Series
	Texts        TextSeries
	Aggregated   Series
	Differenced  Series
	SingleBucket bool
	Summary      Summary
	Report       Report
}

// Engine runs the report pipeline against a fixed field schema.
type Engine struct {
	schema *core.Schema
}

func NewEngine(schema *core.Schema) *Engine {
	return &Engine{schema: schema}
}

// Schema returns the schema the engine was built with.
func (e *Engine) Schema() *core.Schema {
	return e.schema
}

// Build derives a report from a snapshot of readings. It never mutates
// readings and holds no state between calls.
//
// Errors are ErrNoData, *InvalidRangeError and *UnknownFieldError. A
// series too short for a summary is not an error: Summary.Sufficient is
// false.
func (e *Engine) Build(readings []core.Reading, p Params) (*Result, error) {
	daily, texts, err := BuildSeries(readings, e.schema, p.Range)
	if err != nil {
		return nil, err
	}

	agg, err := Aggregate(daily, e.schema, p.View, p.DataType)
	if err != nil {
		return nil, err
	}

	return &Result{
		Params:       p,
		Daily:        daily,
		Texts:        texts,
		Aggregated:   agg.Aggregated,
		Differenced:  agg.Differenced,
		SingleBucket: agg.SingleBucket,
		Summary:      Summarize(agg.Differenced, e.schema, p.View),
		Report:       Assemble(agg.Differenced, texts),
	}, nil
}
