// Package search implements faceted content search and album aggregation.
//
// A content search resolves the needed and excluded facet lists through the
// relation index, keeps the items the viewer may access, orders them newest
// first (descending id) and returns one page. An album search runs the same
// content search without paging, counts matches per album and ranks albums
// by that count.
//
// The engine holds no mutable state. Every call reads the store directly, so
// concurrent searches need no coordination.
package search
