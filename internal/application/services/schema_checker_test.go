package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leadbridge/backend/internal/domain/ports"
)

func TestSchemaChecker_PartitionsByExistence(t *testing.T) {
	crm := newFakeCRM() // describes LastName and Company only
	crm.describe.Fields = append(crm.describe.Fields, ports.FieldDescriptor{Name: "Q01__c", Type: "string"})

	checker := NewSchemaChecker(crm)
	result := checker.CheckExistence(context.Background(), "Lead", []string{"Q01__c", "Q02__c"})

	assert.Contains(t, result.Existing, "Q01__c")
	assert.Contains(t, result.Missing, "Q02__c")
	assert.Equal(t, 1, crm.describeCalls, "one describe per invocation regardless of candidate count")
}

func TestSchemaChecker_EmptyCandidates(t *testing.T) {
	crm := newFakeCRM()
	checker := NewSchemaChecker(crm)

	result := checker.CheckExistence(context.Background(), "Lead", nil)

	assert.Empty(t, result.Existing)
	assert.Empty(t, result.Missing)
	assert.Zero(t, crm.describeCalls, "no remote call without candidates")
}

func TestSchemaChecker_DescribeFailureAssumesExistence(t *testing.T) {
	crm := newFakeCRM()
	crm.describeErr = fmt.Errorf("remote unavailable")
	checker := NewSchemaChecker(crm)

	result := checker.CheckExistence(context.Background(), "Lead", []string{"Q01__c"})

	assert.Contains(t, result.Existing, "Q01__c", "an unreachable schema must not trigger provisioning")
	assert.Empty(t, result.Missing)
}
