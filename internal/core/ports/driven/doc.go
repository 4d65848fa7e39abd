// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// Core services depend only on these interfaces. Concrete adapters
// (Gemini, ScaleDown, SQLite) live under internal/adapters/driven and
// are injected at construction time; no process-wide singletons.
package driven
