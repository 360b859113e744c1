// Package report renders the results of an edge sweep for humans and
// persists the edge masks as image files.
//
// Console output is plain text meant for reading, not parsing: one block per
// threshold pair, a fixed commentary on the stages of the Canny algorithm, a
// ranking by edge density and a short statistical summary.
//
// Every output filename is computed before the first file is written, so a
// naming template that maps two results to the same file is rejected up
// front with ErrNameCollision. Writes themselves are not transactional: if
// one fails, files already written stay on disk.
package report
