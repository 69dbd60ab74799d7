// Package report runs every check against one model and collects the
// results into a Report: analyzer diagnostics, the structural validation,
// and the deadlock exploration.
//
// A Report is stamped with a run id, the model's content hash, and the
// time it was produced. Identity comes from injected generators so golden
// files stay stable:
//
//	r := report.New(
//		report.WithIDs(testutil.NewFixedRunID(testutil.DefaultRunID)),
//		report.WithClock(testutil.NewFakeClock()),
//	)
//	rep, err := r.Run(ctx, model)
//
// Reports render as JSON, plain text, or markdown. Markdown can be styled
// for a terminal with RenderTerminal.
package report
