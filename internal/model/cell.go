package model

import "unicode/utf8"

// Color is the tagged variant Default | Indexed(0..255) | Rgb(r,g,b).
type Color struct {
	Kind ColorKind
	Idx  uint8
	R, G, B uint8
}

type ColorKind int

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorRGB
)

func RGBColor(r, g, b uint8) Color { return Color{Kind: ColorRGB, R: r, G: g, B: b} }
func IndexedColor(i uint8) Color   { return Color{Kind: ColorIndexed, Idx: i} }

// Attributes holds the SGR state applied to a cell's character.
type Attributes struct {
	Fg, Bg                            Color
	Bold, Dim, Italic, Underline, Inverse bool
	// Hyperlink is the OSC 8 URI active when this cell was written, if
	// any. Supplements spec.md's Attributes with the hyperlink the
	// original engine tracks per cell.
	Hyperlink string
}

// ContentBytes is the inline capacity for a Cell's UTF-8 text: enough
// for one base codepoint plus a couple of combining marks, matching
// the original godly-vt crate's 22-byte budget so that Cell stays close
// to a 32-byte target record.
const ContentBytes = 22

// CellContentKind tags whether a Cell holds text or an image fragment
// reference (§9 "Image protocols" design note).
type CellContentKind int

const (
	ContentText CellContentKind = iota
	ContentImageFragment
)

// Cell is one grid position. Content is stored as a short inline byte
// slice (avoids a heap allocation per cell for the common case of a
// single-byte ASCII character).
type Cell struct {
	content   [ContentBytes]byte
	length    uint8
	Attrs     Attributes
	Wide      bool
	WideCont  bool
	ContentKind CellContentKind
	ImageRef  string // only meaningful when ContentKind == ContentImageFragment
}

// NewCell returns a blank space cell with the given attributes.
func NewCell(attrs Attributes) Cell {
	var c Cell
	c.Set(' ', attrs)
	return c
}

// Set replaces the cell's content with a single rune, clearing any
// previously appended combining marks.
func (c *Cell) Set(r rune, attrs Attributes) {
	c.content = [ContentBytes]byte{}
	c.length = 0
	c.ContentKind = ContentText
	c.Attrs = attrs
	c.appendRune(r)
}

// Append adds a combining mark to the existing base character, capped
// at the inline capacity (mirrors cell.rs's append_char bound).
func (c *Cell) Append(r rune) {
	if int(c.length)+4 > ContentBytes {
		return
	}
	c.appendRune(r)
}

func (c *Cell) appendRune(r rune) {
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	if int(c.length)+n > ContentBytes {
		return
	}
	copy(c.content[c.length:], tmp[:n])
	c.length += uint8(n)
}

// Content returns the cell's text as a string.
func (c *Cell) Content() string {
	return string(c.content[:c.length])
}

// Clear resets the cell to a blank space with the given attributes,
// clearing wide/wide-continuation flags.
func (c *Cell) Clear(attrs Attributes) {
	c.Set(' ', attrs)
	c.Wide = false
	c.WideCont = false
	c.ContentKind = ContentText
	c.ImageRef = ""
}

// SetWideContinuation marks the cell as the empty right half of a wide
// character pair.
func (c *Cell) SetWideContinuation(attrs Attributes) {
	c.Clear(attrs)
	c.WideCont = true
}
