// Package services implements the business logic layer of claimsight. It
// sits between the HTTP handlers and the ETL/detection packages, ensuring
// business rules are centralized and testable.
//
// The layer exposes three services:
//
//   - DataService: ingests uploads and synthetic datasets through the ETL
//     pipeline into the store
//   - DetectionService: runs detection over stored datasets and prepares
//     result exports
//   - HealthService: reports liveness, readiness and version information
//
// Services take context.Context on every operation for cancellation and
// trace propagation, and return sentinel errors from the errors package
// that the transport layer maps to RFC 7807 problem responses.
package services
