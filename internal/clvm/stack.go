package clvm

type stack struct {
	l []*Program
}

func newStack() *stack {
	return &stack{l: make([]*Program, 0, 64)}
}

func (s *stack) Push(v *Program) {
	s.l = append(s.l, v)
}

func (s *stack) Pop() *Program {
	v := s.l[len(s.l)-1]
	s.l = s.l[:len(s.l)-1]
	return v
}

func (s *stack) Top() *Program {
	return s.l[len(s.l)-1]
}

func (s *stack) Len() int {
	return len(s.l)
}

func (s *stack) Has(n int) bool {
	return len(s.l) >= n
}
