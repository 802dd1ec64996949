package expr

// Scope is the explicit symbol table consulted during evaluation.
// One Scope lives for exactly one predictor-evaluation call; per-state
// bindings are overwritten in place by the call driver between states.
type Scope struct {
	vars map[string]Value
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]Value)}
}

// Set binds name to v, replacing any previous binding.
func (s *Scope) Set(name string, v Value) {
	s.vars[name] = v
}

// Get looks up name in the scope.
func (s *Scope) Get(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Has reports whether name is bound.
func (s *Scope) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}
