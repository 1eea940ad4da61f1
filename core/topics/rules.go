package topics

import "github.com/siherrmann/civicgraph/model"

// DefaultRules returns the versioned topic table.
// Adding a topic means adding an entry here.
func DefaultRules() []Rule {
	return []Rule{
		NewRule(model.TopicZoning,
			`\bzoning\b`,
			`\brezone\b`,
			`\brezoning\b`,
			`\bchapter\s*160\b`,
			`\btitle\s*(xv|15)\b`,
			`\bpud\b`,
			`\bplanned unit development\b`,
			`\b(c-\s*h|c-h)\b`,
			`\b(hwy|highway)\s+commercial\b`,
			`\btitle\s*(xv|15)\s*chapter\s*160\s*zoning\b`,
			`\brezone\b.*\bc-\s*h\b.*\bto\b.*\bpud\b`,
		),
		NewRule(model.TopicOrdinancesGeneral,
			`\bordinance\b`,
			`\b(first|second|third|final)\s+reading\b`,
		),
		NewRule(model.TopicPublicHearings,
			`\bpublic hearing\b`,
			`\bestablish public hearing\b`,
		),
		NewRule(model.TopicSchools,
			`\bschools?\b`,
			`\bschool district\b`,
			`\beducation(?:al)?\b`,
			`\bstudents?\b`,
		),
		NewRule(model.TopicPublicSafety,
			`\bpublic safety\b`,
			`\bpolice(?:\s+department)?\b`,
			`\bfire(?:\s+ems|\s+department)?\b`,
			`\bems\b`,
			`\bemergency medical\b`,
			`\btraffic safety\b`,
			`\blaw enforcement\b`,
		),
		NewRule(model.TopicEnforcement,
			`\bcode enforcement\b`,
			`\benforcement\b`,
			`\bmunicipal infractions?\b`,
			`\binfractions?\b`,
			`\bcitations?\b`,
			`\bviolations?\b`,
		),
		NewRule(model.TopicContractsProcurement,
			`\bbids?\b`,
			`\baward of contract\b`,
			`\bapproving contract\b`,
			`\bprofessional services agreement\b`,
			`\bcontract\b`,
		),
		NewRule(model.TopicBudgetFinance,
			`\bbudget\b`,
			`\bbill lists?\b`,
			`\bfinancial statements?\b`,
			`\bcash position\b`,
			`\bproperty tax\b`,
			`\bcapital loan notes?\b`,
		),
		NewRule(model.TopicInfrastructureTransport,
			`\bpaving\b`,
			`\bsidewalk\b`,
			`\bstreet\b`,
			`\bsewer\b`,
			`\bpatch program\b`,
		),
		NewRule(model.TopicUrbanRenewalDevelopment,
			`\burban renewal\b`,
			`\bdevelopment agreement\b`,
			`\bconveyance of property\b`,
		),
		NewRule(model.TopicBoardsCommissions,
			`\bboard of adjustment\b`,
			`\bcivil service\b`,
			`\badvisory board\b`,
			`\bboards?\s+and\s+commissions?\b`,
		),
		NewRule(model.TopicLicensesPermits,
			`\bbusiness licenses?\b`,
			`\bbuilding permit\b`,
			`\bpermit report\b`,
		),
		NewRule(model.TopicUtilitiesFranchise,
			`\belectric franchise\b`,
			`\bgas franchise\b`,
			`\bmidamerican\b`,
		),
	}
}
