// Package detail implements the history pane of the cache browser. History is loaded
// lazily when the pane opens; the pane shows a loading line until the data arrives and
// can be reloaded with 'r'.
package detail
