// Package etl turns uploaded claim files into detection-ready tables. The
// pipeline runs extract (CSV/XLSX to strings), validate (structural issues
// and warnings), transform (column-specific cleaning), and prepare (typed
// coercion plus derived features), in that order. Each stage returns a new
// table; row ids assigned at extraction survive every stage.
package etl
