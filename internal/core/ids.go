package core

// IDSequence hands out session-unique identifiers. Structures and pipes draw
// from the same sequence so a pipe ID never collides with a structure ID.
type IDSequence struct {
	next int64
}

// NewIDSequence returns a sequence whose first ID is 1.
func NewIDSequence() *IDSequence {
	return &IDSequence{next: 1}
}

// Next returns a fresh ID.
func (s *IDSequence) Next() int64 {
	id := s.next
	s.next++
	return id
}

// Observe bumps the sequence past a caller-assigned ID.
func (s *IDSequence) Observe(id int64) {
	if id >= s.next {
		s.next = id + 1
	}
}
