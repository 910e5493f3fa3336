// Package feed turns a GitHub repository listing into directory links.
//
// The listing comes from a snapshot when one is available (a file refreshed
// out-of-band by `linkdir snapshot`, or the copy embedded at build time) and
// from the GitHub REST API otherwise. Records without a description, forks and
// empty repositories are dropped; the rest are classified by an ordered rule
// table and sorted by stars.
package feed
