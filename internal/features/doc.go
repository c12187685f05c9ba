// Package features turns a subject's raw activity records into the fixed
// feature vector consumed by the risk classifier.
//
// Extraction is read-only and stateless. Records are pulled from an
// ActivitySource (Postgres or the Snowflake warehouse in production, an
// in-memory fake in tests) for a closed time range, and every feature with no
// contributing record falls back to its documented baseline.
package features
