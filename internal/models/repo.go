package models

import "time"

// Repository is the metadata the repository host reports for one repository.
// Field names follow the host's REST representation so that the object can be
// passed back and forth between the API and its callers unchanged.
type Repository struct {
	ID            int64      `json:"id"`
	Owner         string     `json:"owner_login,omitempty"`
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	Description   *string    `json:"description"`
	Language      *string    `json:"language"`
	Stars         int        `json:"stargazers_count"`
	Forks         int        `json:"forks_count"`
	URL           string     `json:"html_url"`
	HomepageURL   *string    `json:"homepage,omitempty"`
	DefaultBranch string     `json:"default_branch,omitempty"`
	Private       bool       `json:"private"`
	Topics        []string   `json:"topics,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// EnrichedRepository is a Repository plus the optional artifacts fetched
// alongside it. Readme and Manifest are nil when unavailable.
type EnrichedRepository struct {
	Repository
	Readme   *string   `json:"readme"`
	Manifest *Manifest `json:"packageJson"`
}
