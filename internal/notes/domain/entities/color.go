package entities

import "fmt"

// Color is a packed 0xAARRGGBB display color.
type Color int64

// Palette offered to users.
const (
	ColorRedOrange  Color = 0xFFFFAB91
	ColorLightGreen Color = 0xFFE7ED9B
	ColorViolet     Color = 0xFFCF94DA
	ColorBabyBlue   Color = 0xFF81DEEA
	ColorRedPink    Color = 0xFFF48FB1
)

// Palette lists the note colors in display order.
func Palette() []Color {
	return []Color{ColorRedOrange, ColorLightGreen, ColorViolet, ColorBabyBlue, ColorRedPink}
}

// DefaultColor is used when a caller does not pick one.
func DefaultColor() Color {
	return ColorRedOrange
}

// Hex renders the color as #AARRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%08X", uint32(c))
}
