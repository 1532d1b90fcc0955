// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding, vector storage, LLM generation,
// and document extraction.
package driven
