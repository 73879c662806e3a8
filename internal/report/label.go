package report

import (
	"image"
	"image/color"
)

// glyphs is a 3x5 pixel font covering what overlay labels need.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	'.': {"000", "000", "000", "000", "010"},
	'-': {"000", "000", "111", "000", "000"},
	'N': {"101", "111", "111", "111", "101"},
	'S': {"111", "100", "111", "001", "111"},
}

const (
	glyphAdvance = 4
	labelHeight  = 7
)

// labelSize returns the width and height drawLabel will cover for text.
func labelSize(text string) (int, int) {
	return len([]rune(text))*glyphAdvance + 1, labelHeight + 1
}

// drawLabel draws text at (x, y) on a filled background box. Unknown runes
// leave a blank cell. Pixels outside img are skipped.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	bounds := img.Bounds()
	w, _ := labelSize(text)

	set := func(px, py int, c color.RGBA) {
		if (image.Point{X: px, Y: py}).In(bounds) {
			img.SetRGBA(px, py, c)
		}
	}

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < w-1; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' {
						set(cx+col, y+row, fg)
					}
				}
			}
		}
		cx += glyphAdvance
	}
}
