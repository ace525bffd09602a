package scene

import (
	"errors"
	"fmt"
)

var ErrInvalidScene = errors.New("invalid scene")

// Validate checks a scene that arrived from outside the editor: every stroke
// holds at least one x,y pair and text ids are non-zero and unique.
func (s *Scene) Validate() error {
	for i, st := range s.Strokes {
		if n := len(st.Points); n < 2 || n%2 != 0 {
			return fmt.Errorf("%w: stroke %d has %d coordinates", ErrInvalidScene, i, n)
		}
	}
	seen := make(map[int64]bool, len(s.Texts))
	for _, t := range s.Texts {
		if t.ID == 0 {
			return fmt.Errorf("%w: text without id", ErrInvalidScene)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate text id %d", ErrInvalidScene, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}
