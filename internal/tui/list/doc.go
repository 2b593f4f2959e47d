// Package listview provides a scrolling list for Bubble Tea views. Only the rows inside
// the viewport are rendered, so long histories stay cheap to draw.
package listview
