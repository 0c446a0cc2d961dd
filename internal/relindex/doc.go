// Package relindex resolves facet queries over the content relations.
//
// Each facet kind (tag, character, author) is a many-to-many relation between
// content items and facets. A Postings implementation answers "which content
// carries this facet"; Resolve combines those answers into the set of content
// ids that carry every needed facet and none of the excluded ones.
//
// The database package provides the Postings the server runs on. Index is an
// in-memory reference implementation of the same relations; no production
// path builds one. Tests use it to run the search engine without a database.
package relindex
