package engine

import (
	"sync"
)

type trieNode struct {
	children map[byte]*trieNode
	isEnd    bool
}

// DomainTrie stores domains reversed so a single walk answers both
// "is this exact domain listed" and "is any parent of it listed".
// "bad.com" matches bad.com and login.bad.com but never notbad.com.
type DomainTrie struct {
	root *trieNode
	lock sync.RWMutex
}

func NewDomainTrie() *DomainTrie {
	return &DomainTrie{
		root: &trieNode{children: make(map[byte]*trieNode)},
	}
}

func (t *DomainTrie) Insert(domain string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.insert(domain)
}

// BulkInsert loads the initial list under a single lock acquisition.
func (t *DomainTrie) BulkInsert(domains []string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	for _, domain := range domains {
		t.insert(domain)
	}
}

func (t *DomainTrie) insert(domain string) {
	if domain == "" {
		return
	}
	node := t.root
	for i := len(domain) - 1; i >= 0; i-- {
		char := domain[i]
		if node.children[char] == nil {
			node.children[char] = &trieNode{children: make(map[byte]*trieNode)}
		}
		node = node.children[char]
	}
	node.isEnd = true
}

// Match reports whether the domain or any parent domain is listed.
func (t *DomainTrie) Match(domain string) bool {
	t.lock.RLock()
	defer t.lock.RUnlock()

	node := t.root
	for i := len(domain) - 1; i >= 0; i-- {
		char := domain[i]

		// A listed entry ends here and the next character toward the
		// front is a label separator: subdomain match.
		if node.isEnd && char == '.' {
			return true
		}

		next, exists := node.children[char]
		if !exists {
			return false
		}
		node = next
	}

	return node.isEnd
}
