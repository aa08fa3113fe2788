// Package reindex re-embeds stored exam items after an embedding model
// change. Old vectors are not comparable with vectors from a different
// model, so similarity retrieval degrades silently until the whole index
// is rebuilt.
//
// The package pages through the item index in batches, regenerates each
// item's content embedding with retry and exponential backoff, and reports
// progress as it goes.
package reindex
