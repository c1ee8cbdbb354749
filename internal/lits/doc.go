// Package lits implements the rules of The Battle of LITS that the network
// needs: pieces, the 10x10 board, legal placements, and the fixed numbering
// of every placement that indexes the policy head.
//
// Coordinates are Point{X, Y} with both in 0..9. Tiles are notated as two
// digits "XY", so Point{1, 2} is "12".
package lits
