package model

import (
	"fmt"
	"strings"
)

// AgentType selects the persona an agent plays in a demo session.
type AgentType string

const (
	AgentTypeRecovery AgentType = "recovery"
	AgentTypeSupport  AgentType = "support"
	AgentTypeClaims   AgentType = "claims"
)

// AgentTypes lists every supported persona in display order.
var AgentTypes = []AgentType{AgentTypeRecovery, AgentTypeSupport, AgentTypeClaims}

func (a AgentType) Valid() bool {
	switch a {
	case AgentTypeRecovery, AgentTypeSupport, AgentTypeClaims:
		return true
	}
	return false
}

// ParseAgentType returns the AgentType for s, rejecting anything outside the closed set.
func ParseAgentType(s string) (AgentType, error) {
	a := AgentType(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown agent type %q (want one of %s)", s, AgentTypeList())
	}
	return a, nil
}

// AgentTypeList renders the supported personas as "recovery, support, claims".
func AgentTypeList() string {
	names := make([]string, len(AgentTypes))
	for i, a := range AgentTypes {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)
