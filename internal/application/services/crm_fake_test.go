package services

import (
	"context"
	"sync"

	"github.com/leadbridge/backend/internal/domain/ports"
	"github.com/leadbridge/backend/pkg/errors"
)

// fakeCRM is an in-memory ports.CRMClient for service tests. Created
// fields are remembered so a second creation reports a duplicate, the
// way the real metadata API does.
type fakeCRM struct {
	mu sync.Mutex

	describe      *ports.ObjectDescription
	describeErr   error
	describeCalls int

	created     []string
	createErrs  map[string]error // per remote field name
	preexisting map[string]bool  // fields that duplicate on first create
	createCalls int

	upsertID       string
	upsertErr      error
	upsertPayloads []map[string]interface{}

	states   map[string]*ports.RemoteRecordState
	stateErr error
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		describe: &ports.ObjectDescription{
			Name: "Lead",
			Fields: []ports.FieldDescriptor{
				{Name: "LastName", Type: "string"},
				{Name: "Company", Type: "string"},
			},
		},
		createErrs:  make(map[string]error),
		preexisting: make(map[string]bool),
		upsertID:    "00Q000000000001",
		states:      make(map[string]*ports.RemoteRecordState),
	}
}

var _ ports.CRMClient = (*fakeCRM)(nil)

func (f *fakeCRM) DescribeObject(_ context.Context, _ string) (*ports.ObjectDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.describeCalls++
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return f.describe, nil
}

func (f *fakeCRM) CreateCustomField(_ context.Context, _ string, def ports.CustomFieldDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++

	if err, ok := f.createErrs[def.FullName]; ok {
		return err
	}
	if f.preexisting[def.FullName] {
		return errors.NewDuplicateFieldError(def.FullName)
	}
	for _, name := range f.created {
		if name == def.FullName {
			return errors.NewDuplicateFieldError(def.FullName)
		}
	}
	f.created = append(f.created, def.FullName)
	f.describe.Fields = append(f.describe.Fields, ports.FieldDescriptor{Name: def.FullName, Type: def.Type})
	return nil
}

func (f *fakeCRM) UpsertRecord(_ context.Context, _ string, fields map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return "", f.upsertErr
	}
	f.upsertPayloads = append(f.upsertPayloads, fields)
	return f.upsertID, nil
}

func (f *fakeCRM) GetRecordState(_ context.Context, _, remoteID string) (*ports.RemoteRecordState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	if state, ok := f.states[remoteID]; ok {
		return state, nil
	}
	return &ports.RemoteRecordState{ID: remoteID, Exists: false}, nil
}

// withCountryPicklist installs the two country fields on the describe result
func (f *fakeCRM) withCountryPicklist(codes map[string]string, names []string) *fakeCRM {
	codeValues := make([]ports.PicklistValue, 0, len(codes))
	for code, label := range codes {
		codeValues = append(codeValues, ports.PicklistValue{Value: code, Label: label, Active: true})
	}
	nameValues := make([]ports.PicklistValue, 0, len(names))
	for _, name := range names {
		nameValues = append(nameValues, ports.PicklistValue{Value: name, Active: true})
	}
	f.describe.Fields = append(f.describe.Fields,
		ports.FieldDescriptor{Name: "CountryCode", Type: "picklist", PicklistValues: codeValues},
		ports.FieldDescriptor{Name: "Country", Type: "picklist", PicklistValues: nameValues},
	)
	return f
}
