package rules

import "sync/atomic"

// Provider hands out the current rule table and supports an atomic swap
// on reload. Processors hold the Provider, not a Table, so a reload takes
// effect for the next event without any locking on the hot path.
type Provider struct {
	table atomic.Pointer[Table]
}

func NewProvider(t *Table) *Provider {
	p := &Provider{}
	p.table.Store(t)
	return p
}

// Swap atomically replaces the table.
func (p *Provider) Swap(t *Table) {
	p.table.Store(t)
}

// Table returns the current table.
func (p *Provider) Table() *Table {
	return p.table.Load()
}

// Classifier returns a classifier over the current table.
func (p *Provider) Classifier() *Classifier {
	return NewClassifier(p.table.Load())
}
