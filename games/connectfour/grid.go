package connectfour

import "strings"

const (
	Rows   = 6
	Cols   = 7
	WinLen = 4
)

type Cell uint8

const (
	Empty Cell = iota
	First
	Second
)

type Board [Rows][Cols]Cell

// dropDisc simulates gravity. Returns the row the disc landed on or -1 if
// the column is full.
func (b *Board) dropDisc(col int, mark Cell) int {
	for r := Rows - 1; r >= 0; r-- {
		if b[r][col] == Empty {
			b[r][col] = mark
			return r
		}
	}
	return -1
}

// connects tests if the disc at (row, col) completes a line of WinLen or more.
func (b *Board) connects(row, col int) bool {
	mark := b[row][col]
	if mark == Empty {
		return false
	}
	dirs := [][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		count := 1
		for r, c := row+d[0], col+d[1]; inside(r, c) && b[r][c] == mark; r, c = r+d[0], c+d[1] {
			count++
		}
		for r, c := row-d[0], col-d[1]; inside(r, c) && b[r][c] == mark; r, c = r-d[0], c-d[1] {
			count++
		}
		if count >= WinLen {
			return true
		}
	}
	return false
}

func (b *Board) full() bool {
	for c := 0; c < Cols; c++ {
		if b[0][c] == Empty {
			return false
		}
	}
	return true
}

func (b *Board) bytes() []byte {
	out := make([]byte, 0, Rows*Cols)
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			out = append(out, byte(b[r][c]))
		}
	}
	return out
}

// String renders the board top row first.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			switch b[r][c] {
			case First:
				sb.WriteByte('X')
			case Second:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func inside(r, c int) bool {
	return r >= 0 && r < Rows && c >= 0 && c < Cols
}
