package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/time/rate"

	"alfredoptarigan/careerforge/internal/models"
)

const (
	DefaultAdzunaURL = "https://api.adzuna.com/v1/api/jobs"

	adzunaIDPrefix          = "adzuna-"
	maxAdzunaRequirements   = 8
	minRequirementLength    = 10
	defaultRequirementsText = "See job description"
)

type JobSearchParams struct {
	Query   string
	Country string
	Limit   int
}

type AdzunaClient interface {
	Search(ctx context.Context, params JobSearchParams) ([]models.JobPosting, error)
}

type AdzunaOptions struct {
	AppID      string
	AppKey     string
	BaseURL    string
	HTTPClient *http.Client
	// RequestsPerSecond throttles outbound calls; zero means one per second.
	RequestsPerSecond float64
}

type adzunaClient struct {
	appID   string
	appKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewAdzunaClient(opts AdzunaOptions) AdzunaClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultAdzunaURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}

	return &adzunaClient{
		appID:   opts.AppID,
		appKey:  opts.AppKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  opts.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2),
	}
}

type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

type adzunaJob struct {
	ID      adzunaID `json:"id"`
	Title   string   `json:"title"`
	Company struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	Description string `json:"description"`
}

func (a *adzunaClient) Search(ctx context.Context, params JobSearchParams) ([]models.JobPosting, error) {
	if params.Query == "" {
		params.Query = "software developer"
	}
	if params.Country == "" {
		params.Country = "us"
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("adzuna rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("app_id", a.appID)
	query.Set("app_key", a.appKey)
	query.Set("results_per_page", strconv.Itoa(params.Limit))
	query.Set("what", params.Query)
	endpoint := fmt.Sprintf("%s/%s/search/1?%s", a.baseURL, url.PathEscape(params.Country), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build adzuna request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call adzuna: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("adzuna returned status %d", resp.StatusCode)
	}

	var data adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode adzuna response: %w", err)
	}

	postings := make([]models.JobPosting, 0, len(data.Results))
	for _, item := range data.Results {
		postings = append(postings, mapAdzunaJob(item))
	}

	log.Printf("🔎 Adzuna returned %d postings for %q\n", len(postings), params.Query)
	return postings, nil
}

// adzunaID accepts both quoted and bare numeric ids.
type adzunaID string

func (id *adzunaID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = adzunaID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = adzunaID(n.String())
	return nil
}

var requirementSeparators = regexp.MustCompile(`[\n•·]`)

func mapAdzunaJob(item adzunaJob) models.JobPosting {
	description := htmlToText(item.Description)

	var requirements []string
	for _, line := range requirementSeparators.Split(description, -1) {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*+ "))
		if len(line) <= minRequirementLength {
			continue
		}
		requirements = append(requirements, line)
		if len(requirements) == maxAdzunaRequirements {
			break
		}
	}
	if len(requirements) == 0 {
		requirements = []string{defaultRequirementsText}
	}

	company := item.Company.DisplayName
	if company == "" {
		company = "Company"
	}
	location := item.Location.DisplayName
	if location == "" {
		location = "Unknown"
	}

	return models.JobPosting{
		ID:           adzunaIDPrefix + string(item.ID),
		Title:        htmlToText(item.Title),
		Company:      company,
		Location:     location,
		RoleType:     models.RoleFullstack,
		Requirements: requirements,
		Preferred:    []string{},
		Description:  description,
	}
}

// htmlToText converts markup to markdown and falls back to stripping tags.
func htmlToText(s string) string {
	if s == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		md = tagPattern.ReplaceAllString(s, " ")
	}
	md = strings.ReplaceAll(md, "**", "")
	return CleanText(md)
}
