// Package analysis runs a rule set snapshot against a tender document and
// folds the raw pattern and post-check outcomes into an ordered findings
// report.
//
// Analyze is a pure function of (snapshot, text, context): identical inputs
// always yield the identical ordered finding sequence. A defective post-check
// drops its own rule's finding but never aborts the rest of the analysis.
package analysis
