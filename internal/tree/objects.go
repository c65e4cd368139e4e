package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/docquery/internal/layout"
)

// ObjectTable maps object ids back to the layout elements they were built
// from. It only grows.
type ObjectTable struct {
	elems []*layout.Element
}

// Add records el and returns its id.
func (t *ObjectTable) Add(el *layout.Element) int {
	t.elems = append(t.elems, el)
	return len(t.elems) - 1
}

// Get returns the element with the given id.
func (t *ObjectTable) Get(id int) (*layout.Element, bool) {
	if id < 0 || id >= len(t.elems) {
		return nil, false
	}
	return t.elems[id], true
}

func (t *ObjectTable) Len() int { return len(t.elems) }

// ParseObjectIDs parses a comma-joined _obj_id value.
func ParseObjectIDs(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty object id")
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("object id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
