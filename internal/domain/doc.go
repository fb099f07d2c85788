// Package domain holds the unified event model shared by producers, the
// event bus, extensions, and overlay clients, plus the narrow interfaces
// through which external collaborators are consumed.
package domain
