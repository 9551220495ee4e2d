package ruby

// scope is one level of local variables. Method, class and module bodies open
// hard scopes that hide outer locals; blocks open soft scopes that see them.
type scope struct {
	vars   map[string]struct{}
	parent *scope
	hard   bool
}

func (c *converter) push(hard bool) {
	c.scope = &scope{vars: make(map[string]struct{}), parent: c.scope, hard: hard}
}

func (c *converter) pop() {
	c.scope = c.scope.parent
}

func (s *scope) declare(name string) {
	if name != "" {
		s.vars[name] = struct{}{}
	}
}

func (s *scope) has(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			return true
		}
		if cur.hard {
			return false
		}
	}
	return false
}
