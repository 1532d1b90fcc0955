// Package driving provides interfaces for application entry points
// (primary/inbound ports): ingestion, retrieval, and chat.
package driving
