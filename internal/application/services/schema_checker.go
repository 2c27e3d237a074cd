package services

import (
	"context"
	"log"

	"github.com/leadbridge/backend/internal/domain/ports"
)

// ExistenceResult partitions candidate field names against the remote schema
type ExistenceResult struct {
	Existing map[string]struct{}
	Missing  map[string]struct{}
}

// SchemaChecker classifies candidate fields into existing vs missing
// with a single describe call per invocation. Idempotent and
// side-effect-free; safe to call repeatedly.
type SchemaChecker struct {
	crm ports.CRMClient
}

// NewSchemaChecker creates a new SchemaChecker
func NewSchemaChecker(crm ports.CRMClient) *SchemaChecker {
	return &SchemaChecker{crm: crm}
}

// CheckExistence describes the object type once and partitions the
// candidate names by set membership. A failed describe degrades to an
// empty missing set: provisioning is skipped and the data write decides.
func (sc *SchemaChecker) CheckExistence(ctx context.Context, objectType string, candidateNames []string) ExistenceResult {
	result := ExistenceResult{
		Existing: make(map[string]struct{}),
		Missing:  make(map[string]struct{}),
	}
	if len(candidateNames) == 0 {
		return result
	}

	desc, err := sc.crm.DescribeObject(ctx, objectType)
	if err != nil {
		log.Printf("⚠️  Schema describe failed for %s, assuming all fields exist: %v", objectType, err)
		for _, name := range candidateNames {
			result.Existing[name] = struct{}{}
		}
		return result
	}

	remoteNames := desc.FieldNames()
	for _, name := range candidateNames {
		if _, ok := remoteNames[name]; ok {
			result.Existing[name] = struct{}{}
		} else {
			result.Missing[name] = struct{}{}
		}
	}
	return result
}
