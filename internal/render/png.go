package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PNGOptions configures a board snapshot.
type PNGOptions struct {
	// SquareSize in pixels; 0 means the default of 72.
	SquareSize int
	// Highlight marks the last move's squares.
	Highlight *MoveHighlight
}

// MoveHighlight marks the from and to squares of a move.
type MoveHighlight struct {
	From nchess.Square
	To   nchess.Square
}

var (
	lightSquareColor = color.RGBA{233, 207, 163, 255}
	darkSquareColor  = color.RGBA{187, 136, 96, 255}
	highlightFill    = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	coordinateColor  = color.NRGBA{R: 60, G: 42, B: 24, A: 255}
)

const defaultSquareSize = 72

// RenderPNG draws the board as a PNG image: squares, last-move
// highlight, pieces, and coordinate legends.
func RenderPNG(board *nchess.Board, opts PNGOptions) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("render: board is nil")
	}
	squareSize := opts.SquareSize
	if squareSize <= 0 {
		squareSize = defaultSquareSize
	}

	boardSize := squareSize * 8
	margin := squareSize / 2
	totalWidth := boardSize + margin*2
	totalHeight := boardSize + margin*2
	origin := image.Point{X: margin, Y: margin}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, imagedraw.Src)

	drawBoardSquares(img, squareSize, origin)
	if opts.Highlight != nil {
		drawSquareFill(img, opts.Highlight.From, squareSize, origin, highlightFill)
		drawSquareFill(img, opts.Highlight.To, squareSize, origin, highlightFill)
	}
	if err := drawBoardPieces(img, board, squareSize, origin); err != nil {
		return nil, err
	}
	drawBoardCoordinates(img, squareSize, origin, margin)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	boardRanks = []nchess.Rank{
		nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5,
		nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1,
	}
	boardFiles = []nchess.File{
		nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD,
		nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH,
	}
)

func drawBoardSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for row, rank := range boardRanks {
		for col, file := range boardFiles {
			sq := nchess.NewSquare(file, rank)
			clr := darkSquareColor
			if isLightSquare(sq) {
				clr = lightSquareColor
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawBoardPieces(dst imagedraw.Image, board *nchess.Board, squareSize int, origin image.Point) error {
	squares := board.SquareMap()
	for row, rank := range boardRanks {
		for col, file := range boardFiles {
			sq := nchess.NewSquare(file, rank)
			piece := squares[sq]
			if piece == nchess.NoPiece {
				continue
			}
			img, err := pieceImage(piece, squareSize)
			if err != nil {
				return err
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawSquareFill(img *image.RGBA, sq nchess.Square, squareSize int, origin image.Point, clr color.Color) {
	col := int(sq.File())
	row := 7 - int(sq.Rank())
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	imagedraw.Draw(img, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawBoardCoordinates(img *image.RGBA, squareSize int, origin image.Point, margin int) {
	drawer := &font.Drawer{
		Dst:  img,
		Face: basicfont.Face7x13,
		Src:  image.NewUniform(coordinateColor),
	}
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()

	boardEndY := origin.Y + 8*squareSize
	for row, rank := range boardRanks {
		baseline := origin.Y + row*squareSize + squareSize/2 + ascent/2
		text := rank.String()
		width := drawer.MeasureString(text).Round()
		drawer.Dot = fixed.P(origin.X-margin/2-width/2, baseline)
		drawer.DrawString(text)
	}
	for col, file := range boardFiles {
		text := file.String()
		width := drawer.MeasureString(text).Round()
		centerX := origin.X + col*squareSize + squareSize/2
		drawer.Dot = fixed.P(centerX-width/2, boardEndY+margin/2+ascent/2)
		drawer.DrawString(text)
	}
}
