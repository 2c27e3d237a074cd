package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadbridge/backend/internal/domain"
	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/internal/domain/ports"
	"github.com/leadbridge/backend/internal/infrastructure/persistence"
	"github.com/leadbridge/backend/pkg/errors"
)

func newTransferFixture(crm *fakeCRM) (*TransferService, *persistence.MemoryLedger) {
	ledger := persistence.NewMemoryLedger()
	svc := NewServiceManager(crm, ledger, Config{
		ObjectType:         "Lead",
		PicklistTTL:        time.Hour,
		SettleDelay:        0,
		ReconcileCron:      "@every 15m",
		ReconcileStaleness: time.Hour,
		ReconcileBatchSize: 100,
	})
	return svc.Transfer, ledger
}

func baseRequest() TransferRequest {
	return TransferRequest{
		TenantID: "tenant-a",
		RecordID: "rec-1",
		Record: lead.Record{
			"LastName": "Smith",
			"Company":  "Acme",
		},
	}
}

func TestTransfer_PassThroughWithoutDynamicFields(t *testing.T) {
	crm := newFakeCRM()
	svc, _ := newTransferFixture(crm)

	result, err := svc.Transfer(context.Background(), baseRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.TransferStateReadyForTransfer, result.State)
	assert.Nil(t, result.Provision, "no schema work without dynamic fields")
	assert.Equal(t, crm.upsertID, result.RemoteID)
	assert.Zero(t, crm.createCalls)
}

func TestTransfer_ExistingDynamicFieldsSkipProvisioning(t *testing.T) {
	crm := newFakeCRM()
	crm.preexisting["Q01__c"] = true
	crm.describe.Fields = append(crm.describe.Fields, ports.FieldDescriptor{Name: "Q01__c", Type: "string"})
	svc, _ := newTransferFixture(crm)

	req := baseRequest()
	req.Record["Q01"] = "answer"

	result, err := svc.Transfer(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, domain.TransferStateReadyForTransfer, result.State)
	assert.Nil(t, result.Provision)
	assert.Zero(t, crm.createCalls)
}

func TestTransfer_MissingFieldsAreProvisionedFirst(t *testing.T) {
	crm := newFakeCRM()
	svc, _ := newTransferFixture(crm)

	req := baseRequest()
	req.Record["Q01"] = "answer"
	req.Labels = map[string]string{"Q01": "Question one"}

	result, err := svc.Transfer(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, domain.TransferStateReadyForTransfer, result.State)
	require.NotNil(t, result.Provision)
	assert.Equal(t, []string{"Q01__c"}, result.Provision.Created)

	require.Len(t, crm.upsertPayloads, 1)
	payload := crm.upsertPayloads[0]
	assert.Equal(t, "answer", payload["Q01__c"], "dynamic values travel under the remote name")
	assert.NotContains(t, payload, "Q01", "bare dynamic names never reach the remote")
	assert.Equal(t, "Smith", payload["LastName"])
}

func TestTransfer_ProvisioningFailureBlocksDataWrite(t *testing.T) {
	crm := newFakeCRM()
	crm.createErrs["Q01__c"] = errors.NewRemoteAPIError("create field", "LIMIT_EXCEEDED", "custom field limit reached")
	svc, ledger := newTransferFixture(crm)

	req := baseRequest()
	req.Record["Q01"] = "answer"

	result, err := svc.Transfer(context.Background(), req)

	require.NoError(t, err, "a schema block is a reported outcome, not a transport error")
	assert.Equal(t, domain.TransferStateBlockedOnSchema, result.State)
	assert.Empty(t, crm.upsertPayloads, "no data write may happen with an inconsistent schema")

	entry, lerr := ledger.GetStatus(context.Background(), "tenant-a", "rec-1")
	require.NoError(t, lerr)
	require.NotNil(t, entry)
	assert.Equal(t, lead.TransferFailed, entry.Status)
	assert.Contains(t, entry.ErrorMessage, "Q01__c")
}

func TestTransfer_SuccessIsRecordedInLedger(t *testing.T) {
	crm := newFakeCRM()
	svc, ledger := newTransferFixture(crm)

	result, err := svc.Transfer(context.Background(), baseRequest())

	require.NoError(t, err)
	entry, lerr := ledger.GetStatus(context.Background(), "tenant-a", "rec-1")
	require.NoError(t, lerr)
	require.NotNil(t, entry)
	assert.Equal(t, lead.TransferSuccess, entry.Status)
	assert.Equal(t, crm.upsertID, entry.RemoteID)
	assert.Equal(t, entry, result.Entry)
}

func TestTransfer_UpsertFailureIsRecorded(t *testing.T) {
	crm := newFakeCRM()
	crm.upsertErr = fmt.Errorf("connection reset")
	svc, ledger := newTransferFixture(crm)

	_, err := svc.Transfer(context.Background(), baseRequest())

	require.Error(t, err)
	entry, lerr := ledger.GetStatus(context.Background(), "tenant-a", "rec-1")
	require.NoError(t, lerr)
	require.NotNil(t, entry)
	assert.Equal(t, lead.TransferFailed, entry.Status)
	assert.Contains(t, entry.ErrorMessage, "connection reset")
}

func TestTransfer_RetryAfterFailureOverwritesLedger(t *testing.T) {
	crm := newFakeCRM()
	crm.upsertErr = fmt.Errorf("connection reset")
	svc, ledger := newTransferFixture(crm)

	_, err := svc.Transfer(context.Background(), baseRequest())
	require.Error(t, err)

	crm.upsertErr = nil
	_, err = svc.Transfer(context.Background(), baseRequest())
	require.NoError(t, err)

	entry, _ := ledger.GetStatus(context.Background(), "tenant-a", "rec-1")
	require.NotNil(t, entry)
	assert.Equal(t, lead.TransferSuccess, entry.Status)
	assert.Empty(t, entry.ErrorMessage, "the failed attempt leaves no residue after a successful retry")
}

func TestTransfer_RequiredFieldValidation(t *testing.T) {
	crm := newFakeCRM()
	svc, _ := newTransferFixture(crm)

	tests := []struct {
		name   string
		mutate func(*TransferRequest)
	}{
		{"missing tenant", func(r *TransferRequest) { r.TenantID = "" }},
		{"missing record ID", func(r *TransferRequest) { r.RecordID = "" }},
		{"missing LastName", func(r *TransferRequest) { delete(r.Record, "LastName") }},
		{"empty Company", func(r *TransferRequest) { r.Record["Company"] = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := baseRequest()
			tc.mutate(&req)

			_, err := svc.Transfer(context.Background(), req)

			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Empty(t, crm.upsertPayloads)
		})
	}
}

func TestTransfer_GuardRuleFailureIsRecorded(t *testing.T) {
	crm := newFakeCRM()
	ledger := persistence.NewMemoryLedger()
	mgr := NewServiceManager(crm, ledger, Config{ObjectType: "Lead", PicklistTTL: time.Hour, ReconcileCron: "@every 15m"})
	require.NoError(t, mgr.Validation.SetRules("tenant-a", []GuardRule{
		{Name: "has-email", Expression: `Email != nil`, Message: "an email address is required"},
	}))

	_, err := mgr.Transfer.Transfer(context.Background(), baseRequest())

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, crm.upsertPayloads)

	entry, _ := ledger.GetStatus(context.Background(), "tenant-a", "rec-1")
	require.NotNil(t, entry)
	assert.Equal(t, lead.TransferFailed, entry.Status)
	assert.Contains(t, entry.ErrorMessage, "email")
}

func TestTransfer_CallerRecordIsNotMutated(t *testing.T) {
	crm := standardPicklistCRM()
	svc, _ := newTransferFixture(crm)

	req := baseRequest()
	req.Record[lead.FieldCountryCode] = "usa"

	_, err := svc.Transfer(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "usa", req.Record[lead.FieldCountryCode], "picklist repair happens on a copy")
	require.Len(t, crm.upsertPayloads, 1)
	assert.Equal(t, "US", crm.upsertPayloads[0][lead.FieldCountryCode])
}

func TestTransfer_InactiveDynamicFieldsAreOmitted(t *testing.T) {
	crm := newFakeCRM()
	svc, _ := newTransferFixture(crm)

	req := baseRequest()
	req.Record["Q01"] = "active"
	req.Record["Q02"] = "inactive"
	req.ActiveFields = []string{"Q01"}

	result, err := svc.Transfer(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, domain.TransferStateReadyForTransfer, result.State)
	require.Len(t, crm.upsertPayloads, 1)
	payload := crm.upsertPayloads[0]
	assert.Contains(t, payload, "Q01__c")
	assert.NotContains(t, payload, "Q02__c", "inactive dynamic fields are dropped entirely")
	assert.NotContains(t, payload, "Q02")
}

func TestTransfer_NilDynamicValueReachesPayload(t *testing.T) {
	crm := newFakeCRM()
	svc, _ := newTransferFixture(crm)

	req := baseRequest()
	req.Record["Q01"] = nil

	_, err := svc.Transfer(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, crm.upsertPayloads, 1)
	payload := crm.upsertPayloads[0]
	value, present := payload["Q01__c"]
	assert.True(t, present, "a nil value is a clear instruction and must be transmitted")
	assert.Nil(t, value)
}
