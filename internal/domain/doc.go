// Package domain defines the core types of the bimsight compliance engine.
//
// # Core Types
//
// Detection is one object observed by a detector in a single evaluation cycle:
// a class label, a confidence, and a representative point (usually the centre
// of the bounding box).
//
// SourceRecord is a structural element as delivered by a model source. It may
// carry an explicit expected position, boundary geometry, or both.
// ReferenceElement is the normalized form produced by the index package, with
// exactly one expected position.
//
// MatchResult pairs a detection with at most one reference element, and
// ComplianceReport folds every pair of a cycle into a bounded score and a
// Status band.
//
// # Sessions
//
// Sample records a captured cycle for later review and Summary aggregates the
// captured scores of a session.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No database or transport dependencies
// - Pure domain logic without infrastructure concerns
package domain
