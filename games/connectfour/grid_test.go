package connectfour

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropDiscStacks(t *testing.T) {
	var b Board
	assert.Equal(t, Rows-1, b.dropDisc(2, First))
	assert.Equal(t, Rows-2, b.dropDisc(2, Second))
	for i := 0; i < Rows-2; i++ {
		b.dropDisc(2, First)
	}
	assert.Equal(t, -1, b.dropDisc(2, Second))
}

func TestConnectsHorizontal(t *testing.T) {
	var b Board
	for c := 1; c <= 3; c++ {
		b.dropDisc(c, Second)
	}
	assert.False(t, b.connects(Rows-1, 3))
	b.dropDisc(4, Second)
	assert.True(t, b.connects(Rows-1, 4))
	assert.True(t, b.connects(Rows-1, 2))
}

func TestFullAndString(t *testing.T) {
	var b Board
	assert.False(t, b.full())
	for c := 0; c < Cols; c++ {
		for r := 0; r < Rows; r++ {
			b[r][c] = Cell(1 + (r+c/2)%2)
		}
	}
	assert.True(t, b.full())

	var empty Board
	empty.dropDisc(0, First)
	assert.Equal(t, "X......\n", empty.String()[Rows*(Cols+1)-(Cols+1):])
}
