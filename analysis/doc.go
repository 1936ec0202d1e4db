// Package analysis implements the manuscript analysis capabilities on top
// of a chat provider.
//
// Analyzer satisfies pipeline.Analyzer. Classification and summarization
// decode the model output themselves; the remaining capabilities return the
// raw response text and leave decoding to the pipeline.
//
//	a := analysis.New(client.New(cfg))
//	p, err := pipeline.New(a)
package analysis
