package models

// JobPosting is the scraped summary of a job ad.
type JobPosting struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

type ResumeExperience struct {
	JobTitle         string   `json:"jobTitle"`
	Company          string   `json:"company"`
	Location         string   `json:"location,omitempty"`
	StartDate        string   `json:"startDate,omitempty"`
	EndDate          string   `json:"endDate,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

type ResumeEducation struct {
	School         string `json:"school"`
	Degree         string `json:"degree,omitempty"`
	Field          string `json:"field,omitempty"`
	GraduationDate string `json:"graduationDate,omitempty"`
}

// ParsedResume is the structured result of parsing an uploaded resume.
type ParsedResume struct {
	Name       string             `json:"name"`
	Email      string             `json:"email,omitempty"`
	Phone      string             `json:"phone,omitempty"`
	Location   string             `json:"location,omitempty"`
	Summary    string             `json:"summary,omitempty"`
	Skills     []string           `json:"skills,omitempty"`
	Experience []ResumeExperience `json:"experience,omitempty"`
	Education  []ResumeEducation  `json:"education,omitempty"`
}
