// Package query turns a free-text garment request into a cleaned query
// string, a set of domain keywords and structured catalog criteria.
//
// All extraction is pure: it reads the immutable lexicon, keeps no state
// between calls and never returns an error. Unrecognized input simply yields
// empty results.
package query
