package cpu

const (
	STACK_LIMIT = 16 // Maximum call depth
)

// Stack is the call stack of saved return addresses.
type Stack struct {
	Data    [STACK_LIMIT]uint16
	Pointer int // Number of nested calls.
}

func (s *Stack) Push(value uint16) (ok bool) {
	if s.Full() {
		return
	}

	s.Data[s.Pointer] = value
	s.Pointer++
	return true
}

func (s *Stack) Pop() (value uint16, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Pointer--
	}
	return
}

func (s *Stack) Empty() bool {
	return s.Pointer == 0
}

func (s *Stack) Full() bool {
	return s.Pointer >= STACK_LIMIT
}

func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[s.Pointer-1], true
}

// Depth returns the return addresses currently held, oldest first.
func (s *Stack) Depth() []uint16 {
	return s.Data[:s.Pointer]
}

func (s *Stack) Reset() {
	clear(s.Data[:])
	s.Pointer = 0
}
