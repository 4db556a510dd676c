// Package search ranks documents against a query embedding.
//
// The searcher asks the chunk store for the nearest chunks under cosine
// distance, collapses them to the single best chunk per document, and
// returns results with plain-text excerpts derived from the documents'
// markdown content.
package search
