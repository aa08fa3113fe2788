// Package analytics provides read-only aggregation over the exam item
// population: review outcome rates, quality averages by status, rejection
// patterns and generation-batch summaries.
package analytics
