// Package services contains the core business logic, wired together from
// the driven ports. Services implement the driving port interfaces and hold
// no knowledge of concrete adapters: the ingestion pipeline does not know
// whether vectors land in memory, SQLite or Chroma, and the chat
// orchestrator does not know which model answers.
package services
