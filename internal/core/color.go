package core

// Color is a palette slot for a screen cell. The platform layer decides how
// each slot looks on a real terminal.
type Color uint8

// Palette slots.
const (
	ColorDefault    Color = iota
	ColorFrame            // board lines
	ColorMuted            // hints, empty cells
	ColorAccent           // titles, score
	ColorAlert            // game over
	ColorTileLow          // 2, 4
	ColorTileMid          // 8 .. 64
	ColorTileHigh         // 128 .. 1024
	ColorTileTop          // 2048 and above
	ColorNewTile          // spawned this move
	ColorMergedTile       // produced by a merge this move
)

// TileColor returns the palette slot for a tile value.
func TileColor(v int) Color {
	switch {
	case v <= 0:
		return ColorMuted
	case v <= 4:
		return ColorTileLow
	case v <= 64:
		return ColorTileMid
	case v <= 1024:
		return ColorTileHigh
	default:
		return ColorTileTop
	}
}
