// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the vector index, embedding and language
// model services, content extractors and the history store.
package driven
