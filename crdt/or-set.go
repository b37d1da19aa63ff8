package crdt

import (
	"sort"
	"sync"

	"github.com/satori/go.uuid"
)

// Structs

// ORSet conforms to the specification of an observed-
// removed set defined by Shapiro, Preguiça, Baquero
// and Zawirski. It consists of unique IDs as keys and
// the set's string elements as values.
type ORSet struct {
	lock     *sync.RWMutex
	elements map[string]string
}

// Functions

// InitORSet returns an empty initialized new
// observed-removed set.
func InitORSet() *ORSet {

	return &ORSet{
		lock:     new(sync.RWMutex),
		elements: make(map[string]string),
	}
}

// lookup expects the caller to hold at least a read lock.
func (s *ORSet) lookup(e string) bool {

	for _, value := range s.elements {

		if e == value {
			return true
		}
	}

	return false
}

// Lookup cycles through elements in ORSet and
// returns true if element e is present and
// false otherwise.
func (s *ORSet) Lookup(e string) bool {

	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.lookup(e)
}

// AddEffect is the effect part of an update add operation
// defined by the specification. It is executed by all
// replicas of the data set including the source node. It
// inserts given element and tag into the set representation.
func (s *ORSet) AddEffect(e string, tag string) {

	s.lock.Lock()
	s.elements[tag] = e
	s.lock.Unlock()
}

// Add executes the prepare and effect parts of an
// add operation under a fresh unique tag and returns
// the update message describing it.
func (s *ORSet) Add(e string) *ORSetOp {

	// Create a new unique tag.
	tag := uuid.NewV4().String()

	s.AddEffect(e, tag)

	op := InitORSetOp(OpAdd)
	op.Arguments[tag] = e

	return op
}

// RemoveEffect deletes all supplied tags from the set.
// Tags added concurrently are not among them and survive.
func (s *ORSet) RemoveEffect(rmElements map[string]string) {

	s.lock.Lock()

	for tag := range rmElements {
		delete(s.elements, tag)
	}

	s.lock.Unlock()
}

// Remove collects all tags currently observed for e,
// removes them and returns the update message. If e
// is not in the set, it returns nil.
func (s *ORSet) Remove(e string) *ORSetOp {

	op := InitORSetOp(OpRemove)

	s.lock.RLock()
	for tag, value := range s.elements {

		if value == e {
			op.Arguments[tag] = value
		}
	}
	s.lock.RUnlock()

	if len(op.Arguments) == 0 {
		return nil
	}

	s.RemoveEffect(op.Arguments)

	return op
}

// GetAllValues returns each element once, sorted.
func (s *ORSet) GetAllValues() []string {

	s.lock.RLock()

	seen := make(map[string]bool, len(s.elements))
	values := make([]string, 0, len(s.elements))

	for _, value := range s.elements {

		if !seen[value] {
			seen[value] = true
			values = append(values, value)
		}
	}

	s.lock.RUnlock()

	sort.Strings(values)

	return values
}
