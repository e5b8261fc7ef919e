// Package dataset provides the in-memory table model shared by the ETL
// pipeline and the anomaly detectors.
//
// A Table is a column-labeled grid of Value cells. Row position at load time
// is the stable row id used throughout detection reports, so tables never
// reorder rows. A Schema, produced by Classifier.Classify, assigns every
// column a single Role (numeric, date, identifier, text) plus its
// distinct-value ratio; detectors consult the schema instead of re-deriving
// column types.
package dataset
