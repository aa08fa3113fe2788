// Package retrieval assembles the context the generation loop hands to the
// drafting model: the formatted rubric rules, the topic's evidence statements,
// and high-quality prior items found by vector similarity over the index.
package retrieval
