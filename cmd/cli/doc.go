// Package cli constructs the leakaudit command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives. It exposes helpers to build reusable application instances and
// to map execution failures onto the automation exit-code contract.
package cli
