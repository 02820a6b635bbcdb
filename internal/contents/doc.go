// Package contents talks to a repository contents API: it reads a file with
// its version token and writes files with an optional compare-and-swap
// token. It also fetches the published document from the public read path.
package contents
