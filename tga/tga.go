/*
Package tga implements a Truevision TGA decoder and encoder.

The file starts with an 18 byte little-endian header, followed by an optional
image ID, an optional color map and then the pixel data, stored either raw or
run-length encoded. Pixels are stored B, G, R and optionally A, starting in
the bottom-left corner unless the descriptor says otherwise.

Only true-color (24 and 32-bit) and grayscale (8-bit) images are supported.
Images decode to *image.NRGBA with the alpha channel untouched, so a fully
transparent pixel keeps its color. Encoding always writes 32-bit pixels
starting in the top-left corner.
*/
package tga

const (
	headerSize = 18

	typeTrueColor    = 2
	typeGray         = 3
	typeRLETrueColor = 10
	typeRLEGray      = 11

	flagRightToLeft = 0x10
	flagTopToBottom = 0x20
	alphaDepth      = 8

	maxPacket = 128
	maxSize   = 0xffff
)
