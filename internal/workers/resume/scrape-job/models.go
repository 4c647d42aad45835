// internal/workers/resume/scrape-job/models.go
package scrapejob

import "mintslip-workers/internal/models"

type Input struct {
	UserToken string `json:"userToken"`
	JobURL    string `json:"jobUrl"`
}

type Output struct {
	JobPosting models.JobPosting `json:"jobPosting"`
}
