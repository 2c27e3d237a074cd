package services

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/internal/domain/ports"
	"github.com/leadbridge/backend/pkg/errors"
)

// provisionedFieldLength is the fixed length of auto-provisioned text fields
const provisionedFieldLength = 255

// ProvisionOutcome aggregates the per-field results of one provisioning pass
type ProvisionOutcome struct {
	Created []string          `json:"created"`
	Skipped []string          `json:"skipped"`
	Failed  map[string]string `json:"failed"` // field name -> error message
}

// AllSucceeded reports whether the data write may proceed
func (o *ProvisionOutcome) AllSucceeded() bool {
	return len(o.Failed) == 0
}

// ProvisionService creates missing custom fields through the remote
// metadata API. Individual field failures never raise; they are
// aggregated for the orchestrator to decide whether to proceed.
type ProvisionService struct {
	crm         ports.CRMClient
	settleDelay time.Duration
	sleep       func(time.Duration)
}

// NewProvisionService creates a new ProvisionService. settleDelay is the
// wait applied after any field creation, absorbing the remote schema's
// eventual consistency before the data write relies on the new fields.
func NewProvisionService(crm ports.CRMClient, settleDelay time.Duration) *ProvisionService {
	return &ProvisionService{
		crm:         crm,
		settleDelay: settleDelay,
		sleep:       time.Sleep,
	}
}

// SetSleeper overrides the settle-delay sleeper (tests)
func (p *ProvisionService) SetSleeper(sleep func(time.Duration)) {
	p.sleep = sleep
}

// Provision creates each missing field with a fixed definition (short
// text, bounded length, optional) and classifies the remote response:
// success -> created, duplicate -> skipped, anything else -> failed.
// A duplicate means another transfer won the race; it is treated
// identically to an already-existing field.
func (p *ProvisionService) Provision(ctx context.Context, objectType string, missing []lead.CandidateField) *ProvisionOutcome {
	outcome := &ProvisionOutcome{Failed: make(map[string]string)}

	// Stable order keeps logs and outcomes deterministic
	fields := make([]lead.CandidateField, len(missing))
	copy(fields, missing)
	sort.Slice(fields, func(i, j int) bool { return fields[i].RemoteName < fields[j].RemoteName })

	for _, field := range fields {
		def := ports.CustomFieldDefinition{
			FullName: field.RemoteName,
			Label:    field.DisplayLabel,
			Type:     "Text",
			Length:   provisionedFieldLength,
			Required: false,
		}

		log.Printf("➕ Provisioning custom field %s on %s", field.RemoteName, objectType)
		err := p.crm.CreateCustomField(ctx, objectType, def)
		switch {
		case err == nil:
			log.Printf("   ✅ Field created: %s", field.RemoteName)
			outcome.Created = append(outcome.Created, field.RemoteName)
		case errors.IsDuplicateField(err):
			log.Printf("   ⏭️  Field already exists (skipped): %s", field.RemoteName)
			outcome.Skipped = append(outcome.Skipped, field.RemoteName)
		default:
			log.Printf("   ❌ Field creation failed for %s: %v", field.RemoteName, err)
			outcome.Failed[field.RemoteName] = err.Error()
		}
	}

	if len(outcome.Created) > 0 && p.settleDelay > 0 {
		// Metadata changes are not immediately visible to the data API
		log.Printf("⏳ Settling for %s after creating %d field(s)", p.settleDelay, len(outcome.Created))
		p.sleep(p.settleDelay)
	}

	return outcome
}
