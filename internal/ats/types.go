// Package ats fetches public job board APIs for the supported applicant
// tracking systems. Responses are decoded into provider-shaped structs;
// normalisation into the relational model happens in the store layer.
package ats

import "encoding/json"

// AshbyBoard is the Ashby posting API response for one board. Title is the
// organisation's display name.
type AshbyBoard struct {
	Title string     `json:"title"`
	Jobs  []AshbyJob `json:"jobs"`
}

// AshbyJob is one Ashby posting.
type AshbyJob struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Department         string          `json:"department"`
	Team               string          `json:"team"`
	EmploymentType     string          `json:"employmentType"`
	Location           string          `json:"location"`
	LocationName       string          `json:"locationName"`
	SecondaryLocations json.RawMessage `json:"secondaryLocations"`
	AllLocations       json.RawMessage `json:"allLocations"`
	PublishedAt        string          `json:"publishedAt"`
	IsListed           *bool           `json:"isListed"`
	IsRemote           *bool           `json:"isRemote"`
	DescriptionHTML    string          `json:"descriptionHtml"`
	DescriptionPlain   string          `json:"descriptionPlain"`
	JobURL             string          `json:"jobUrl"`
	ApplyURL           string          `json:"applyUrl"`
	Compensation       json.RawMessage `json:"compensation"`
	Address            json.RawMessage `json:"address"`
}

// GreenhouseBoard is the Greenhouse boards API response for one board.
type GreenhouseBoard struct {
	Jobs []GreenhouseJob `json:"jobs"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

// GreenhouseJob is one Greenhouse posting.
type GreenhouseJob struct {
	ID             int64           `json:"id"`
	InternalJobID  int64           `json:"internal_job_id"`
	Title          string          `json:"title"`
	UpdatedAt      string          `json:"updated_at"`
	FirstPublished string          `json:"first_published"`
	RequisitionID  string          `json:"requisition_id"`
	AbsoluteURL    string          `json:"absolute_url"`
	CompanyName    string          `json:"company_name"`
	Content        string          `json:"content"`
	Location       struct {
		Name string `json:"name"`
	} `json:"location"`
	Departments    json.RawMessage `json:"departments"`
	Offices        json.RawMessage `json:"offices"`
	Metadata       json.RawMessage `json:"metadata"`
	DataCompliance json.RawMessage `json:"data_compliance"`
}

// WorkableBoard is the Workable widget API response for one account.
type WorkableBoard struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Jobs        []WorkableJob `json:"jobs"`
}

// WorkableJob is one Workable posting.
type WorkableJob struct {
	Title          string `json:"title"`
	Shortcode      string `json:"shortcode"`
	Code           string `json:"code"`
	EmploymentType string `json:"employment_type"`
	Telecommuting  bool   `json:"telecommuting"`
	Department     string `json:"department"`
	URL            string `json:"url"`
	ApplicationURL string `json:"application_url"`
	PublishedOn    string `json:"published_on"`
	CreatedAt      string `json:"created_at"`
	Country        string `json:"country"`
	City           string `json:"city"`
	State          string `json:"state"`
	Education      string `json:"education"`
	Experience     string `json:"experience"`
	Function       string `json:"function"`
	Industry       string `json:"industry"`
}

// LeverPosting is one posting from the Lever postings API. The API returns
// a bare array, so a board is just []LeverPosting.
type LeverPosting struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
	CreatedAt        int64           `json:"createdAt"`
	WorkplaceType    string          `json:"workplaceType"`
	Country          string          `json:"country"`
	Opening          string          `json:"opening"`
	OpeningPlain     string          `json:"openingPlain"`
	DescriptionBody  string          `json:"descriptionBody"`
	DescriptionPlain string          `json:"descriptionBodyPlain"`
	Additional       string          `json:"additional"`
	AdditionalPlain  string          `json:"additionalPlain"`
	Lists            json.RawMessage `json:"lists"`
	Categories       struct {
		Commitment string `json:"commitment"`
		Department string `json:"department"`
		Location   string `json:"location"`
		Team       string `json:"team"`
	} `json:"categories"`
}
