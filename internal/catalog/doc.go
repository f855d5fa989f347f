// Package catalog owns the descriptors of one opened disc, determines which
// backing files exist on the filesystem, and answers selection queries.
//
// Selection is recorded as an index into the owned slice; re-ingesting clears
// it so a selection never outlives the descriptors it refers to.
package catalog
