// Package ingest writes per-chunk embeddings for documents into the
// vector store. Documents are split into token-bounded chunks, embedded
// through the worker client, and upserted keyed by
// (document_id, chunk_index, model_id, device).
package ingest
