package types

// PersonalInfo holds the candidate's contact details
type PersonalInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
}

// Links holds public profile URLs
type Links struct {
	LinkedIn  string `json:"linkedin"`
	GitHub    string `json:"github"`
	Portfolio string `json:"portfolio"`
}

// WorkAuth describes the candidate's right to work
type WorkAuth struct {
	NeedSponsorship   bool   `json:"need_sponsorship"`
	WorkAuthorization string `json:"work_authorization"`
}

// ExperienceItem is one position in the work history
type ExperienceItem struct {
	Company   string `json:"company"`
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Location  string `json:"location"`
	Summary   string `json:"summary"`
}

// EducationItem is one entry in the education history
type EducationItem struct {
	School    string `json:"school"`
	Degree    string `json:"degree"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Documents holds URLs of previously uploaded documents
type Documents struct {
	ResumeURL      string `json:"resume_url"`
	CoverLetterURL string `json:"cover_letter_url"`
}

// Profile is the single user profile document. It is only ever replaced as a
// whole, never patched.
type Profile struct {
	Personal   PersonalInfo     `json:"personal"`
	Links      Links            `json:"links"`
	WorkAuth   WorkAuth         `json:"work_auth"`
	Experience []ExperienceItem `json:"experience"`
	Education  []EducationItem  `json:"education"`
	Skills     []string         `json:"skills"`
	Documents  Documents        `json:"documents"`
}

// Normalized returns a copy with nil slices replaced by empty ones so the
// profile always serializes lists as [] rather than null.
func (p Profile) Normalized() Profile {
	out := p
	out.Experience = append(make([]ExperienceItem, 0, len(p.Experience)), p.Experience...)
	out.Education = append(make([]EducationItem, 0, len(p.Education)), p.Education...)
	out.Skills = append(make([]string, 0, len(p.Skills)), p.Skills...)
	return out
}
