// Package extraction turns a call transcript and an ordered list of
// questions into structured answers using layered heuristic pattern
// matching.
//
// Each question is classified by keyword into a Category. The category
// selects a Strategy: an ordered list of probes (regular expressions or
// keyword sets) tried against the normalized transcript. When the category
// strategy finds nothing, a generic fallback searches the transcript for
// text following the question's own words.
//
// # Architecture
//
// The main components are:
//   - Classify: fixed-priority keyword classifier for questions
//   - Strategy: declarative (pattern, constructor) table per category
//   - Engine: compiles the strategy table and assembles a ResultMap
//   - ResultMap: ordered question_N to {question, answer} mapping
//
// # Usage
//
//	engine, err := extraction.NewEngine(extraction.Config{})
//	results := engine.Extract(ctx, transcript.FromValue(raw), questions)
//	for _, e := range results.Entries() {
//	    fmt.Printf("%s: %s\n", e.Question, e.Answer)
//	}
//
// The engine never fails on transcript content. A fault inside a single
// question's extraction is recovered and reported as ProcessingError for
// that question only.
//
// Answers are best-effort. The generic fallback in particular can return
// unrelated transcript fragments.
package extraction
