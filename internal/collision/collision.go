// Package collision finds overlapping actors with axis-aligned bounding boxes.
package collision

import (
	"fmt"

	"github.com/vk/scenerunner/internal/world"
)

// Pair is an unordered pair of colliding actor ids. A is the actor created
// first.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

func (p Pair) String() string {
	return fmt.Sprintf("{%s, %s}", p.A, p.B)
}

// Overlaps reports whether the bounding boxes of a and b intersect. Touching
// edges count as an overlap.
func Overlaps(a, b world.Actor) bool {
	aLeft, aTop, aRight, aBottom := a.Bounds()
	bLeft, bTop, bRight, bBottom := b.Bounds()
	return aRight >= bLeft && aLeft <= bRight && aBottom >= bTop && aTop <= bBottom
}

// Detect returns every overlapping pair in actors, in creation order. It
// reads only its argument. An actor is never paired with itself, even if the
// snapshot lists it twice.
func Detect(actors []world.Actor) []Pair {
	var pairs []Pair
	for i := 0; i < len(actors); i++ {
		for j := i + 1; j < len(actors); j++ {
			if actors[i].ID == actors[j].ID {
				continue
			}
			if Overlaps(actors[i], actors[j]) {
				pairs = append(pairs, Pair{A: actors[i].ID, B: actors[j].ID})
			}
		}
	}
	return pairs
}
