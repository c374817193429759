package view

// Stack tracks the nodes whose render bodies are currently executing.
// The top node is the implicit parent of nodes created during its pass.
type Stack struct {
	nodes []*Node
}

// Push makes n the current top.
func (s *Stack) Push(n *Node) {
	s.nodes = append(s.nodes, n)
}

// Pop removes and returns the top node, or nil if the stack is empty.
func (s *Stack) Pop() *Node {
	if len(s.nodes) == 0 {
		return nil
	}
	top := s.nodes[len(s.nodes)-1]
	s.nodes[len(s.nodes)-1] = nil
	s.nodes = s.nodes[:len(s.nodes)-1]
	return top
}

// Top returns the current top node, or nil.
func (s *Stack) Top() *Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[len(s.nodes)-1]
}

// Depth returns the number of nodes on the stack.
func (s *Stack) Depth() int {
	return len(s.nodes)
}

// enter pushes n and returns a func that restores the stack to its depth
// before the push, discarding anything an unbalanced body left behind.
func (s *Stack) enter(n *Node) (release func()) {
	depth := len(s.nodes)
	s.Push(n)
	return func() {
		for len(s.nodes) > depth {
			s.Pop()
		}
	}
}
