// Package extractors provides implementations of the Extractor interface
// for the document formats the ingestion pipeline accepts. Each extractor
// knows how to obtain plain text from a specific document kind.
//
// Extractors are registered with the Registry at startup.
package extractors
