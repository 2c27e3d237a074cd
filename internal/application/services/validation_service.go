package services

import (
	"fmt"
	"sync"

	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/pkg/errors"
	"github.com/leadbridge/backend/pkg/expression"
)

// GuardRule is a per-tenant boolean expression that must hold before a
// record may be transferred, e.g. `Email != "" or Phone != ""`.
type GuardRule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Message    string `json:"message"` // shown to the caller when the rule fails
}

// ValidationService evaluates guard rules against a record before
// transfer. Rules are scoped per tenant; a tenant with no rules passes.
type ValidationService struct {
	engine *expression.Engine

	mu    sync.RWMutex
	rules map[string][]GuardRule // key: tenant ID
}

// NewValidationService creates a new ValidationService
func NewValidationService(engine *expression.Engine) *ValidationService {
	return &ValidationService{
		engine: engine,
		rules:  make(map[string][]GuardRule),
	}
}

// SetRules replaces the guard rules for a tenant. Each expression is
// compiled against a sample environment so malformed rules are rejected
// at configuration time, not at transfer time.
func (vs *ValidationService) SetRules(tenantID string, rules []GuardRule) error {
	sample := map[string]interface{}{}
	for _, rule := range rules {
		if rule.Expression == "" {
			return errors.NewValidationError("expression", fmt.Sprintf("guard rule '%s' has an empty expression", rule.Name))
		}
		if err := vs.engine.Validate(rule.Expression, sample); err != nil {
			return errors.NewValidationError("expression", fmt.Sprintf("guard rule '%s' does not compile: %v", rule.Name, err))
		}
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.rules[tenantID] = rules
	return nil
}

// Rules returns the guard rules configured for a tenant
func (vs *ValidationService) Rules(tenantID string) []GuardRule {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return vs.rules[tenantID]
}

// Validate evaluates every guard rule for the tenant against the record.
// The first failing or erroring rule blocks the transfer.
func (vs *ValidationService) Validate(tenantID string, record lead.Record) error {
	rules := vs.Rules(tenantID)
	if len(rules) == 0 {
		return nil
	}

	env := make(map[string]interface{}, len(record))
	for k, v := range record {
		env[k] = v
	}

	for _, rule := range rules {
		ok, err := vs.engine.EvaluateBool(rule.Expression, env)
		if err != nil {
			return errors.NewValidationError(rule.Name, fmt.Sprintf("guard rule evaluation failed: %v", err))
		}
		if !ok {
			message := rule.Message
			if message == "" {
				message = fmt.Sprintf("guard rule '%s' rejected the record", rule.Name)
			}
			return errors.NewValidationError(rule.Name, message)
		}
	}
	return nil
}
