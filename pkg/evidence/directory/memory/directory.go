// Package memory provides an in-memory case directory for tests and
// development. Production deployments adapt their case-management service
// to the evidence.CaseDirectory interface instead.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/casetrail/casetrail/pkg/evidence"
)

// Directory is an in-memory implementation of evidence.CaseDirectory.
type Directory struct {
	mu      sync.RWMutex
	cases   map[uuid.UUID]evidence.Case
	content map[uuid.UUID][]evidence.ContentRef
}

// New creates an empty in-memory directory.
func New() *Directory {
	return &Directory{
		cases:   make(map[uuid.UUID]evidence.Case),
		content: make(map[uuid.UUID][]evidence.ContentRef),
	}
}

// AddCase registers a case.
func (d *Directory) AddCase(c evidence.Case) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cases[c.ID] = c
}

// AddContent registers content refs for a case.
func (d *Directory) AddContent(caseID uuid.UUID, refs ...evidence.ContentRef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content[caseID] = append(d.content[caseID], refs...)
}

// GetCase returns the case snapshot for caseID.
func (d *Directory) GetCase(ctx context.Context, caseID uuid.UUID) (*evidence.Case, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, exists := d.cases[caseID]
	if !exists {
		return nil, fmt.Errorf("case %s not found", caseID)
	}
	return &c, nil
}

// ListContent returns userID's personal refs plus all shared refs for a
// case.
func (d *Directory) ListContent(ctx context.Context, caseID, userID uuid.UUID) ([]evidence.ContentRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, exists := d.cases[caseID]; !exists {
		return nil, fmt.Errorf("case %s not found", caseID)
	}

	var refs []evidence.ContentRef
	for _, ref := range d.content[caseID] {
		if ref.Scope == evidence.ScopeShared || ref.OwnerID == userID {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}
