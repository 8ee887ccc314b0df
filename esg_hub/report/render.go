package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"esg_platform/esg_hub/schema"

	"gorm.io/datatypes"
)

const notAvailable = "N/A"

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func yearOrNA(year int) string {
	if year <= 0 {
		return notAvailable
	}
	return strconv.Itoa(year)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func consolidationScope(subsidiaries []schema.Subsidiary) string {
	entries := make([]string, 0, len(subsidiaries))
	for _, s := range subsidiaries {
		entries = append(entries, fmt.Sprintf("%s (%s) - %s%%", s.Name, s.Country, formatNumber(s.OwnershipPercentage)))
	}
	return strings.Join(entries, ", ")
}

// reportingPeriod assumes the period starts on 1 January of the year before the
// fiscal year end, whatever the entity's actual fiscal calendar.
func reportingPeriod(fiscalYearEnd *datatypes.Date) string {
	if fiscalYearEnd == nil {
		return ""
	}
	end := time.Time(*fiscalYearEnd)
	if end.IsZero() {
		return ""
	}
	return fmt.Sprintf("1 January %d - %s", end.Year()-1, end.Format("2 January 2006"))
}

func headquartersLocation(p *schema.CompanyProfile) string {
	return strings.Join(nonEmpty(p.HeadquartersCity, p.HeadquartersCountry), ", ")
}

func employees(count int) string {
	if count <= 0 {
		return ""
	}
	return strconv.Itoa(count)
}

func governanceRoles(gov *schema.GovernanceStructure) string {
	if gov == nil {
		return ""
	}
	return strings.Join(gov.CommitteeResponsibilities, ", ")
}

func assessedTopics(topics []schema.MaterialityTopic) string {
	entries := make([]string, 0, len(topics))
	for _, t := range topics {
		group := t.Subcategory
		if group == "" {
			group = t.Category
		}
		entries = append(entries, fmt.Sprintf("%s (%s)", t.Topic, group))
	}
	return strings.Join(entries, ", ")
}

func materialTopicsTable(topics []schema.MaterialityTopic) string {
	lines := make([]string, 0, len(topics))
	for _, t := range topics {
		if !t.IsMaterial {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: Material Index %s, Stakeholders: %s",
			t.Topic, formatNumber(t.MaterialityIndex), strings.Join(t.ImpactedStakeholders, ", ")))
	}
	return strings.Join(lines, "\n")
}

func riskLine(iro schema.IroRegisterEntry) string {
	fields := []string{
		"Title: " + orNA(iro.Title),
		"Description: " + orNA(iro.Description),
		"Category: " + orNA(iro.Category),
		fmt.Sprintf("Likelihood: %d/5", iro.Likelihood),
		fmt.Sprintf("Severity: %d/5", iro.Severity),
		"Time Horizon: " + orNA(iro.TimeHorizon),
		"Affected Stakeholders: " + orNA(iro.AffectedStakeholders),
		"Value Chain Location: " + orNA(iro.ValueChainLocation),
		"Financial Materiality: " + yesNo(iro.FinancialMateriality),
		"Impact Materiality: " + yesNo(iro.ImpactMateriality),
	}
	return strings.Join(fields, " | ")
}

func sustainabilityRisks(iros []schema.IroRegisterEntry) string {
	entries := make([]string, 0, len(iros))
	for _, iro := range iros {
		if iro.IroType == schema.IroRisk {
			entries = append(entries, riskLine(iro))
		}
	}
	return strings.Join(entries, "\n\n")
}

func sustainabilityOpportunities(iros []schema.IroRegisterEntry) string {
	lines := make([]string, 0, len(iros))
	for _, iro := range iros {
		if iro.IroType != schema.IroOpportunity {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s (Category: %s, Time Horizon: %s)",
			orNA(iro.Title), orNA(iro.Description), orNA(iro.Category), orNA(iro.TimeHorizon)))
	}
	return strings.Join(lines, "\n")
}

func remediationMechanisms(plans []schema.ActionPlan) string {
	lines := make([]string, 0, len(plans))
	for _, p := range plans {
		lines = append(lines, fmt.Sprintf("%s: %s (Responsible: %s, Timeline: %s, Status: %s)",
			orNA(p.Title), orNA(p.Description), orNA(p.Responsible), orNA(p.Timeline), orNA(p.Status)))
	}
	return strings.Join(lines, "\n")
}

func dueDiligenceSummary(dd *schema.DueDiligenceProcess) string {
	if dd == nil {
		return ""
	}
	fields := []string{
		"Methodology: " + orNA(dd.Methodology),
		"Scope: " + orNA(dd.Scope),
		"Risk Identification: " + orNA(dd.RiskIdentification),
		"Monitoring: " + orNA(dd.MonitoringProcess),
		"Frequency: " + orNA(dd.Frequency),
	}
	return strings.Join(fields, " | ")
}

func kpiLine(kpi schema.EsgDataKpi) string {
	fields := []string{
		"KPI: " + orNA(kpi.KpiName),
		"Section: " + orNA(kpi.Section),
		"Unit: " + orNA(kpi.Unit),
		"Current Value: " + orNA(kpi.CurrentValue),
		"Baseline Value: " + orNA(kpi.BaselineValue),
		"Baseline Year: " + yearOrNA(kpi.BaselineYear),
		"Target Value: " + orNA(kpi.TargetValue),
		"Target Year: " + yearOrNA(kpi.TargetYear),
		"Data Source: " + orNA(kpi.DataSource),
		"Collection Method: " + orNA(kpi.CollectionMethod),
		"Verification Status: " + orNA(kpi.VerificationStatus),
		"Verified By: " + orNA(kpi.VerifiedBy),
	}
	return strings.Join(fields, " | ")
}

// esgDataByTopic groups kpis by "{esrsTopic} - {topicTitle}" keeping the order in
// which each group is first seen.
func esgDataByTopic(kpis []schema.EsgDataKpi) string {
	order := make([]string, 0)
	groups := make(map[string][]string)
	for _, kpi := range kpis {
		key := fmt.Sprintf("%s - %s", kpi.EsrsTopic, kpi.TopicTitle)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], kpiLine(kpi))
	}

	blocks := make([]string, 0, len(order))
	for _, key := range order {
		blocks = append(blocks, fmt.Sprintf("%s:\n%s", key, strings.Join(groups[key], "\n")))
	}
	return strings.Join(blocks, "\n\n\n")
}

func initiatives(list []schema.SustainabilityInitiative) string {
	lines := make([]string, 0, len(list))
	for _, i := range list {
		lines = append(lines, fmt.Sprintf("%s (%s): %s", i.Name, orNA(i.Status), orNA(i.Description)))
	}
	return strings.Join(lines, "\n")
}

func companyKpis(list []schema.SustainabilityKPI) string {
	lines := make([]string, 0, len(list))
	for _, k := range list {
		value := strings.Join(nonEmpty(k.Value, k.Unit), " ")
		lines = append(lines, fmt.Sprintf("%s: %s (Target: %s, Year: %s)", k.Name, orNA(value), orNA(k.Target), yearOrNA(k.Year)))
	}
	return strings.Join(lines, "\n")
}
