package distributor

import (
	"strings"
	"sync"

	"github.com/go-pluto/imaparg/crdt"
)

// Structs

// mailboxes keeps the mailbox names and the
// subscriptions of every user that logged in.
type mailboxes struct {
	lock  *sync.Mutex
	users map[string]*userMailboxes
}

type userMailboxes struct {
	all        *crdt.ORSet
	subscribed *crdt.ORSet
}

// Functions

func newMailboxes() *mailboxes {

	return &mailboxes{
		lock:  new(sync.Mutex),
		users: make(map[string]*userMailboxes),
	}
}

// forUser returns the mailboxes of user, creating
// them with an INBOX on first access.
func (m *mailboxes) forUser(user string) *userMailboxes {

	m.lock.Lock()
	defer m.lock.Unlock()

	boxes, found := m.users[user]
	if !found {

		boxes = &userMailboxes{
			all:        crdt.InitORSet(),
			subscribed: crdt.InitORSet(),
		}
		boxes.all.Add("INBOX")

		m.users[user] = boxes
	}

	return boxes
}

// canonicalMailbox maps any spelling of INBOX to
// "INBOX", which is case-insensitive per RFC 3501.
func canonicalMailbox(name string) string {

	if strings.EqualFold(name, "INBOX") {
		return "INBOX"
	}

	return name
}

// collapseStars replaces runs of '*' in pattern by a single one.
func collapseStars(pattern string) string {

	var b strings.Builder
	b.Grow(len(pattern))

	for i := 0; i < len(pattern); i++ {

		if pattern[i] == '*' && i > 0 && pattern[i-1] == '*' {
			continue
		}

		b.WriteByte(pattern[i])
	}

	return b.String()
}

// matchMailbox reports whether name matches a LIST
// pattern, in which '*' matches any characters and
// '%' any characters but the hierarchy separator.
// It runs in O(len(pattern) * len(name)).
func matchMailbox(pattern string, name string, sep string) bool {

	pattern = collapseStars(pattern)

	// cur[j] tells whether pattern[i:] matches name[j:]
	// for the row i currently computed, next holds row i+1.
	next := make([]bool, len(name)+1)
	cur := make([]bool, len(name)+1)

	next[len(name)] = true

	for i := len(pattern) - 1; i >= 0; i-- {

		for j := len(name); j >= 0; j-- {

			switch pattern[i] {

			case '*':
				cur[j] = next[j] || (j < len(name) && cur[j+1])

			case '%':
				atSep := sep != "" && strings.HasPrefix(name[j:], sep)
				cur[j] = next[j] || (j < len(name) && !atSep && cur[j+1])

			default:
				cur[j] = j < len(name) && name[j] == pattern[i] && next[j+1]
			}
		}

		cur, next = next, cur
	}

	return next[0]
}
