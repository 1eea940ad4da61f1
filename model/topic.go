package model

import "fmt"

// Topic is a label assigned to agenda content by the topic classifier.
type Topic string

const (
	TopicZoning                  Topic = "zoning"
	TopicOrdinancesGeneral       Topic = "ordinances_general"
	TopicPublicHearings          Topic = "public_hearings"
	TopicSchools                 Topic = "schools"
	TopicPublicSafety            Topic = "public_safety"
	TopicEnforcement             Topic = "enforcement"
	TopicContractsProcurement    Topic = "contracts_procurement"
	TopicBudgetFinance           Topic = "budget_finance"
	TopicInfrastructureTransport Topic = "infrastructure_transport"
	TopicUrbanRenewalDevelopment Topic = "urban_renewal_development"
	TopicBoardsCommissions       Topic = "boards_commissions"
	TopicLicensesPermits         Topic = "licenses_permits"
	TopicUtilitiesFranchise      Topic = "utilities_franchise"
)

// ParseTopic validates s against the given known topics. Empty means no topic.
func ParseTopic(s string, known []Topic) (Topic, error) {
	if len(s) == 0 {
		return "", nil
	}
	for _, t := range known {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown topic %q", s)
}

// ZoningSignal holds structured facts pulled from zoning-tagged text.
type ZoningSignal struct {
	FromZone        string `json:"from_zone,omitempty"`
	ToZone          string `json:"to_zone,omitempty"`
	ReadingStage    string `json:"reading_stage,omitempty"`
	OrdinanceNumber string `json:"ordinance_number,omitempty"`
	Address         string `json:"address,omitempty"`
}

// Empty reports whether no signal was found.
func (z ZoningSignal) Empty() bool {
	return z == ZoningSignal{}
}
