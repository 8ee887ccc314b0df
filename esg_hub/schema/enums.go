package schema

import "fmt"

const (
	OrganizationRole = "organization"
	ConsultantRole   = "consultant"
)

func CheckValidRole(role string) error {
	if role == OrganizationRole || role == ConsultantRole {
		return nil
	}
	return fmt.Errorf("invalid role '%v', must be 'organization' or 'consultant'", role)
}

const (
	IroImpact      = "Impact"
	IroRisk        = "Risk"
	IroOpportunity = "Opportunity"
)

func CheckValidIroType(iroType string) error {
	if iroType == IroImpact || iroType == IroRisk || iroType == IroOpportunity {
		return nil
	}
	return fmt.Errorf("invalid iro type '%v', must be 'Impact', 'Risk', or 'Opportunity'", iroType)
}

const (
	ReportDraft = "draft"
	ReportFinal = "final"
)

// A topic is material when either axis reaches this score.
const MaterialityThreshold = 3

func MaterialityIndex(financialImpact, stakeholderImpact int) float64 {
	return float64(financialImpact+stakeholderImpact) / 2
}

func IsMaterial(financialImpact, stakeholderImpact int) bool {
	return financialImpact >= MaterialityThreshold || stakeholderImpact >= MaterialityThreshold
}
