package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// JobSearchName is the capability name workers use to fetch listings.
const JobSearchName = "job_search"

const defaultSerperURL = "https://google.serper.dev/jobs"

// JobSearchConfig configures the Serper backed job search.
type JobSearchConfig struct {
	// APIKey is the Serper API key.
	APIKey string
	// BaseURL overrides the jobs endpoint.
	BaseURL string
	// Country is the Serper gl parameter (e.g. "in", "us").
	Country string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// HTTPClient replaces the default client.
	HTTPClient *http.Client
}

// JobSearch queries the Serper jobs endpoint and normalises the listings.
type JobSearch struct {
	apiKey  string
	baseURL string
	country string
	client  *http.Client
}

// NewJobSearch creates a job search capability.
func NewJobSearch(cfg JobSearchConfig) *JobSearch {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSerperURL
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &JobSearch{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		country: cfg.Country,
		client:  client,
	}
}

func (j *JobSearch) Name() string { return JobSearchName }

func (j *JobSearch) Description() string {
	return "Fetches real job openings for a role, location and experience level."
}

func (j *JobSearch) Parameters() Parameters {
	return Parameters{
		Properties: map[string]any{
			"role": map[string]any{
				"type":        "string",
				"description": "Target job role, e.g. 'ML Engineer'",
			},
			"location": map[string]any{
				"type":        "string",
				"description": "Job location, e.g. 'Remote' or 'Mumbai'",
			},
			"experience_level": map[string]any{
				"type":        "string",
				"enum":        models.ExperienceLevels(),
				"description": "intern|junior|mid|senior",
			},
		},
		Required: []string{"role", "location", "experience_level"},
	}
}

// JobSearchInput is the decoded capability input.
type JobSearchInput struct {
	Role            string `json:"role"`
	Location        string `json:"location"`
	ExperienceLevel string `json:"experience_level"`
}

// Validate rejects blank fields and unknown experience levels.
func (in JobSearchInput) Validate() error {
	if strings.TrimSpace(in.Role) == "" {
		return fmt.Errorf("role must be a non-empty string")
	}
	if strings.TrimSpace(in.Location) == "" {
		return fmt.Errorf("location must be a non-empty string")
	}
	if !models.ExperienceLevel(in.ExperienceLevel).Valid() {
		return fmt.Errorf("experience_level must be one of: %s", strings.Join(models.ExperienceLevels(), ", "))
	}
	return nil
}

// Query builds the search string sent to the provider.
func (in JobSearchInput) Query() string {
	return fmt.Sprintf("%s %s jobs in %s", in.Role, in.ExperienceLevel, in.Location)
}

func (j *JobSearch) Invoke(ctx context.Context, input json.RawMessage) (string, error) {
	var in JobSearchInput
	if err := decodeInput(JobSearchName, input, &in); err != nil {
		return "", err
	}
	if err := in.Validate(); err != nil {
		return "", fmt.Errorf("%s: %w", JobSearchName, err)
	}

	result, err := j.Search(ctx, in)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%s: encode result: %w", JobSearchName, err)
	}
	return string(out), nil
}

type serperRequest struct {
	Q  string `json:"q"`
	GL string `json:"gl,omitempty"`
}

// Search runs one query against the provider.
func (j *JobSearch) Search(ctx context.Context, in JobSearchInput) (*models.JobSearchResult, error) {
	if j.apiKey == "" {
		return nil, fmt.Errorf("SERPER_API_KEY is not set")
	}

	reqBody, err := json.Marshal(serperRequest{Q: in.Query(), GL: j.country})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", j.apiKey)

	httpResp, err := j.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("job search API failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job search API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	return NormalizeJobs(respBody), nil
}

// NormalizeJobs converts a provider payload into the job listing shape.
// Anything unparseable yields an empty listing rather than an error; missing
// text fields become "Unknown" and unparseable posting ages become null.
func NormalizeJobs(payload []byte) *models.JobSearchResult {
	out := &models.JobSearchResult{Jobs: []models.Job{}}

	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return out
	}
	raw, ok := doc["jobs"].([]any)
	if !ok {
		return out
	}

	for _, item := range raw {
		r, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out.Jobs = append(out.Jobs, models.Job{
			Title:         textOr(r, "Unknown", "title"),
			Company:       textOr(r, "Unknown", "company", "companyName"),
			Location:      textOr(r, "Unknown", "location"),
			ApplyLink:     textOr(r, "", "link", "apply_link"),
			PostedDaysAgo: postedDays(r["posted"]),
		})
	}
	return out
}

func textOr(r map[string]any, fallback string, keys ...string) string {
	for _, k := range keys {
		if s, ok := r[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return fallback
}

var leadingNumber = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)

// postedDays reads "3 days ago", "3" or 3 as 3. Hours and minutes count as 0.
func postedDays(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case string:
		m := leadingNumber.FindStringSubmatch(val)
		if m == nil {
			return nil
		}
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		lower := strings.ToLower(val)
		switch {
		case strings.Contains(lower, "hour"), strings.Contains(lower, "minute"):
			n = 0
		case strings.Contains(lower, "week"):
			n *= 7
		case strings.Contains(lower, "month"):
			n *= 30
		}
		return &n
	default:
		return nil
	}
}
