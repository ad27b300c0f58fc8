package constants

// RoleKeywords are title and seniority words that mark a job-title line.
var RoleKeywords = []string{
	"CEO", "CTO", "CFO", "COO", "President", "Founder", "Director", "Manager",
	"Lead", "Head", "Engineer", "Developer", "Designer", "Consultant",
	"Representative", "Specialist", "Coordinator", "Administrator", "Partner",
}

// CompanySuffixes are legal-entity and organisation words that mark a company line.
// Matching is case-sensitive.
var CompanySuffixes = []string{
	"Inc", "LLC", "Ltd", "Corp", "Group", "Holdings", "Solutions", "Systems", "Agency", "Enterprises",
}

// PublicEmailProviders are consumer domains that say nothing about an employer.
var PublicEmailProviders = map[string]struct{}{
	"gmail.com":   {},
	"outlook.com": {},
	"yahoo.com":   {},
	"hotmail.com": {},
	"icloud.com":  {},
}

// IsPublicEmailProvider reports whether domain is a consumer mailbox provider.
func IsPublicEmailProvider(domain string) bool {
	_, ok := PublicEmailProviders[domain]
	return ok
}
