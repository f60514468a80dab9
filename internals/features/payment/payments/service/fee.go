package service

import (
	dirModel "admissionsdesk_backend/internals/features/admissions/directory/model"
)

// CalculateApplicationFee computes the total fee for a preference list:
// the base fee belongs to the first preference only, every extra preference
// adds the surcharge of the largest satisfied trigger rule, and the total is
// capped at fee_cap. Returns (total, per-extra-preference surcharge).
func CalculateApplicationFee(preferences []string, rules dirModel.FeeRules, courseName string) (int, int) {
	if len(preferences) == 0 {
		return 0, 0
	}

	base := 0
	if byCourse, ok := rules.BaseFees[courseName]; ok {
		base = byCourse[preferences[0]]
	}

	perExtra := 0
	bestTrigger := 0
	for _, rule := range rules.AdditionalFees {
		if len(preferences) >= rule.TriggerCount && rule.TriggerCount > bestTrigger {
			bestTrigger = rule.TriggerCount
			perExtra = rule.Amount
		}
	}

	total := base + (len(preferences)-1)*perExtra
	if rules.FeeCap > 0 && total > rules.FeeCap {
		total = rules.FeeCap
	}
	return total, perExtra
}

// FirstPreferenceComponent isolates the discountable part of a computed
// total: everything except the per-extra-preference surcharges, which stay
// undiscounted when a promocode applies.
func FirstPreferenceComponent(total, perExtra, preferences int) int {
	if preferences <= 1 {
		return total
	}
	component := total - (preferences-1)*perExtra
	if component < 0 {
		return 0
	}
	return component
}
