// Package board implements the Dots and Boxes board: edge placement and box
// completion rules, free of any I/O or room concerns.
//
// The board is sized by dots per side. For N dots per side there are
// N x (N-1) horizontal edges, (N-1) x N vertical edges, and (N-1) x (N-1)
// boxes. A box is owned exactly when all four of its bounding edges are set,
// and ownership never changes once assigned.
package board

import (
	"fmt"
	"strconv"

	apperrors "github.com/dotgrid/dotgrid/internal/platform/errors"
)

// Orientation identifies the direction of an edge.
type Orientation int

const (
	// Horizontal is an edge between dot (r,c) and (r,c+1).
	Horizontal Orientation = iota
	// Vertical is an edge between dot (r,c) and (r+1,c).
	Vertical
)

// String returns the wire form of the orientation.
func (o Orientation) String() string {
	if o == Vertical {
		return "V"
	}
	return "H"
}

// Owner identifies which seat owns a box. The values match the wire
// encoding used in snapshots.
type Owner int

const (
	// OwnerNone marks an unclaimed box.
	OwnerNone Owner = -1
	// OwnerSeat0 marks a box owned by seat 0.
	OwnerSeat0 Owner = 0
	// OwnerSeat1 marks a box owned by seat 1.
	OwnerSeat1 Owner = 1
)

// Supported dot-grid sizes.
const (
	MinSize = 3
	MaxSize = 5
	// DefaultSize is used when a room is created without an explicit size.
	DefaultSize = 4
)

// Box addresses one unit cell by its top-left dot.
type Box struct {
	Row int
	Col int
}

var (
	// ErrEdgeOutOfRange indicates an edge coordinate outside the grid.
	ErrEdgeOutOfRange = apperrors.New(apperrors.CodeInvalidEdge, "edge coordinates are out of range")
	// ErrEdgeAlreadySet indicates the edge was already placed.
	ErrEdgeAlreadySet = apperrors.New(apperrors.CodeEdgeAlreadySet, "edge is already set")
	// ErrBoxAlreadyOwned indicates a claim against an owned box.
	ErrBoxAlreadyOwned = apperrors.New(apperrors.CodeBoxAlreadyOwned, "box is already owned")
	// ErrInvalidSize indicates an unsupported dot-grid size.
	ErrInvalidSize = apperrors.New(apperrors.CodeInvalidGridSize, "grid size is not supported")
)

// Board holds edge and box state for one game.
type Board struct {
	size       int
	horizontal [][]bool
	vertical   [][]bool
	boxes      [][]Owner
	edgesSet   int
}

// New creates an empty board with the given number of dots per side.
func New(size int) (*Board, error) {
	if size < MinSize || size > MaxSize {
		return nil, apperrors.WithMetadata(
			apperrors.CodeInvalidGridSize,
			fmt.Sprintf("grid size %d is not supported", size),
			map[string]string{"size": strconv.Itoa(size)},
		)
	}

	horizontal := make([][]bool, size)
	for r := range horizontal {
		horizontal[r] = make([]bool, size-1)
	}
	vertical := make([][]bool, size-1)
	for r := range vertical {
		vertical[r] = make([]bool, size)
	}
	boxes := make([][]Owner, size-1)
	for r := range boxes {
		boxes[r] = make([]Owner, size-1)
		for c := range boxes[r] {
			boxes[r][c] = OwnerNone
		}
	}

	return &Board{
		size:       size,
		horizontal: horizontal,
		vertical:   vertical,
		boxes:      boxes,
	}, nil
}

// Size returns the number of dots per side.
func (b *Board) Size() int { return b.size }

// BoxRows returns the number of box rows.
func (b *Board) BoxRows() int { return b.size - 1 }

// BoxCols returns the number of box columns.
func (b *Board) BoxCols() int { return b.size - 1 }

// totalEdges is the count of all placeable edges: 2 * N * (N-1).
func (b *Board) totalEdges() int {
	return 2 * b.size * (b.size - 1)
}

func (b *Board) inRange(o Orientation, row, col int) bool {
	switch o {
	case Horizontal:
		return row >= 0 && row < b.size && col >= 0 && col < b.size-1
	case Vertical:
		return row >= 0 && row < b.size-1 && col >= 0 && col < b.size
	}
	return false
}

// EdgeSet reports whether the edge at (row, col) is set.
func (b *Board) EdgeSet(o Orientation, row, col int) (bool, error) {
	if !b.inRange(o, row, col) {
		return false, ErrEdgeOutOfRange
	}
	if o == Horizontal {
		return b.horizontal[row][col], nil
	}
	return b.vertical[row][col], nil
}

// SetEdge marks the edge at (row, col) and returns the boxes newly completed
// by it. At most two boxes border an edge, so the result has zero, one, or
// two entries. Completed boxes are left unowned; the caller assigns
// ownership via Claim.
func (b *Board) SetEdge(o Orientation, row, col int) ([]Box, error) {
	if !b.inRange(o, row, col) {
		return nil, ErrEdgeOutOfRange
	}

	switch o {
	case Horizontal:
		if b.horizontal[row][col] {
			return nil, ErrEdgeAlreadySet
		}
		b.horizontal[row][col] = true
	case Vertical:
		if b.vertical[row][col] {
			return nil, ErrEdgeAlreadySet
		}
		b.vertical[row][col] = true
	}
	b.edgesSet++

	var completed []Box
	for _, box := range b.adjacentBoxes(o, row, col) {
		if b.boxes[box.Row][box.Col] == OwnerNone && b.boxComplete(box) {
			completed = append(completed, box)
		}
	}
	return completed, nil
}

// adjacentBoxes lists the boxes bordering the edge, clipped to the grid.
// A horizontal edge borders the box above and below it; a vertical edge
// borders the box to its left and right.
func (b *Board) adjacentBoxes(o Orientation, row, col int) []Box {
	boxes := make([]Box, 0, 2)
	switch o {
	case Horizontal:
		if row > 0 {
			boxes = append(boxes, Box{Row: row - 1, Col: col})
		}
		if row < b.BoxRows() {
			boxes = append(boxes, Box{Row: row, Col: col})
		}
	case Vertical:
		if col > 0 {
			boxes = append(boxes, Box{Row: row, Col: col - 1})
		}
		if col < b.BoxCols() {
			boxes = append(boxes, Box{Row: row, Col: col})
		}
	}
	return boxes
}

func (b *Board) boxComplete(box Box) bool {
	top := b.horizontal[box.Row][box.Col]
	bottom := b.horizontal[box.Row+1][box.Col]
	left := b.vertical[box.Row][box.Col]
	right := b.vertical[box.Row][box.Col+1]
	return top && bottom && left && right
}

// Claim assigns ownership of a completed box. Ownership is assigned exactly
// once; claiming an owned box fails.
func (b *Board) Claim(box Box, owner Owner) error {
	if box.Row < 0 || box.Row >= b.BoxRows() || box.Col < 0 || box.Col >= b.BoxCols() {
		return ErrEdgeOutOfRange
	}
	if b.boxes[box.Row][box.Col] != OwnerNone {
		return ErrBoxAlreadyOwned
	}
	b.boxes[box.Row][box.Col] = owner
	return nil
}

// Owner returns the owner of the box at (row, col).
func (b *Board) Owner(row, col int) (Owner, error) {
	if row < 0 || row >= b.BoxRows() || col < 0 || col >= b.BoxCols() {
		return OwnerNone, ErrEdgeOutOfRange
	}
	return b.boxes[row][col], nil
}

// Complete reports whether every edge on the board is set.
func (b *Board) Complete() bool {
	return b.edgesSet == b.totalEdges()
}

// View is a deep copy of the board contents, safe to hand out for encoding.
type View struct {
	Size       int
	Horizontal [][]bool
	Vertical   [][]bool
	Boxes      [][]Owner
}

// View returns a snapshot copy of the board state.
func (b *Board) View() View {
	horizontal := make([][]bool, len(b.horizontal))
	for r := range b.horizontal {
		horizontal[r] = append([]bool(nil), b.horizontal[r]...)
	}
	vertical := make([][]bool, len(b.vertical))
	for r := range b.vertical {
		vertical[r] = append([]bool(nil), b.vertical[r]...)
	}
	boxes := make([][]Owner, len(b.boxes))
	for r := range b.boxes {
		boxes[r] = append([]Owner(nil), b.boxes[r]...)
	}
	return View{
		Size:       b.size,
		Horizontal: horizontal,
		Vertical:   vertical,
		Boxes:      boxes,
	}
}
