// Package domain contains the core business entities and rules for docchat.
//
// This package has no dependencies on other internal packages or external
// services. It defines documents, chunks, retrieval results, ingestion
// reports, and the error values shared across the system.
package domain
