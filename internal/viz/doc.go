// Package viz renders stored trajectories in the terminal.
//
// [Viewer] is a Bubble Tea model that replays a trajectory row by row and
// draws the interior profile with asciigraph.
//
// # Key Bindings
//
//	Space - Play/Pause
//	[ ]   - Step one row back/forward
//	g G   - Jump to first/last row
//	T     - Cycle color themes
//	?     - Show help overlay
//	q     - Quit
package viz
