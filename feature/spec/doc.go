// Package spec is the in-memory model of a tenant spec: shapes, languages,
// price variants, stock locations, vat types, topic maps, grids and the item tree.
//
// Specs are read from JSON or YAML. YAML documents are converted to JSON with
// their key order intact, because several component values (properties tables,
// component choices, rich text translations) are order sensitive.
//
// Item components are kept raw until compile time. Components distinguishes an
// absent value (no action), an explicit null (clear everything) and a map of
// per-component values.
package spec
