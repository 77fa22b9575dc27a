// Package services contains the application core: the ingestion pipeline
// and the chat service. Services depend only on the ports; adapters are
// injected at startup.
package services
