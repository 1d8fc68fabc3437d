package extract

import "reflect"

type nodeKey struct {
	ptr uintptr
	n   int
	arr bool
}

// visited records container identities already entered by a traversal.
// Host values can be cyclic, so every walk over a snapshot value goes
// through one of these.
type visited struct {
	seen map[nodeKey]struct{}
}

func newVisited() *visited {
	return &visited{seen: make(map[nodeKey]struct{})}
}

// enter marks v as seen and reports whether it was new. Empty containers and
// scalars are always new: they cannot lead back anywhere.
func (s *visited) enter(v any) bool {
	key, ok := identityOf(v)
	if !ok {
		return true
	}
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

func identityOf(v any) (nodeKey, bool) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return nodeKey{}, false
		}
		return nodeKey{ptr: reflect.ValueOf(t).Pointer()}, true
	case []any:
		if len(t) == 0 {
			return nodeKey{}, false
		}
		return nodeKey{ptr: reflect.ValueOf(t).Pointer(), n: len(t), arr: true}, true
	}
	return nodeKey{}, false
}

// hasCycle reports whether v reaches one of its own ancestors. Shared
// sub-values that are not ancestors are fine.
func hasCycle(v any) bool {
	onPath := make(map[nodeKey]struct{})
	var walk func(any) bool
	walk = func(node any) bool {
		key, ok := identityOf(node)
		if !ok {
			return false
		}
		if _, dup := onPath[key]; dup {
			return true
		}
		onPath[key] = struct{}{}
		defer delete(onPath, key)
		switch t := node.(type) {
		case map[string]any:
			for _, child := range t {
				if walk(child) {
					return true
				}
			}
		case []any:
			for _, child := range t {
				if walk(child) {
					return true
				}
			}
		}
		return false
	}
	return walk(v)
}
