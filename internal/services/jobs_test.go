package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/careerforge/internal/models"
)

func TestMockJobPostingsCoverEveryRole(t *testing.T) {
	seen := map[models.JobRoleType]bool{}
	ids := map[string]bool{}
	for _, job := range MockJobPostings() {
		assert.NotEmpty(t, job.RoleType.Label(), job.ID)
		assert.NotEmpty(t, job.Requirements, job.ID)
		assert.False(t, ids[job.ID], "duplicate id %s", job.ID)
		ids[job.ID] = true
		seen[job.RoleType] = true
	}
	for _, role := range []models.JobRoleType{models.RoleFrontend, models.RoleBackend, models.RoleFullstack, models.RoleDevops, models.RoleMobile, models.RoleData} {
		assert.True(t, seen[role], "no posting for %s", role)
	}
}

func TestJobCatalog(t *testing.T) {
	catalog := NewJobCatalog(nil, rand.New(rand.NewPCG(1, 2)))

	job, ok := catalog.FindByID("3")
	require.True(t, ok)
	assert.Equal(t, "Backend Developer", job.Title)

	_, ok = catalog.FindByID("missing")
	assert.False(t, ok)

	listed := catalog.List()
	listed[0].Title = "mutated"
	first, _ := catalog.FindByID(listed[0].ID)
	assert.NotEqual(t, "mutated", first.Title)

	for i := 0; i < 20; i++ {
		random := catalog.Random()
		_, ok := catalog.FindByID(random.ID)
		assert.True(t, ok)
	}
}

const adzunaBody = `{"results": [
  {"id": "4839201", "title": "<strong>Go</strong> Engineer", "company": {"display_name": "Acme"}, "location": {"display_name": "Denver, CO"},
   "description": "<p>We need:</p><ul><li>Experience with Go services</li><li>Kubernetes in production</li><li>SQL</li></ul>"},
  {"id": 77, "title": "Developer", "company": {}, "location": {}, "description": ""}
]}`

func TestAdzunaSearch(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(adzunaBody))
	}))
	defer server.Close()

	client := NewAdzunaClient(AdzunaOptions{AppID: "id", AppKey: "key", BaseURL: server.URL, RequestsPerSecond: 100})

	jobs, err := client.Search(context.Background(), JobSearchParams{Query: "golang dev", Country: "gb", Limit: 5})
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "/gb/search/1", gotPath)
	assert.Contains(t, gotQuery, "app_id=id")
	assert.Contains(t, gotQuery, "results_per_page=5")
	assert.Contains(t, gotQuery, "what=golang+dev")

	first := jobs[0]
	assert.Equal(t, "adzuna-4839201", first.ID)
	assert.Equal(t, "Go Engineer", first.Title)
	assert.Equal(t, "Acme", first.Company)
	assert.Equal(t, models.RoleFullstack, first.RoleType)
	assert.Equal(t, []string{"Experience with Go services", "Kubernetes in production"}, first.Requirements)
	assert.NotContains(t, first.Description, "<")

	second := jobs[1]
	assert.Equal(t, "adzuna-77", second.ID)
	assert.Equal(t, "Company", second.Company)
	assert.Equal(t, "Unknown", second.Location)
	assert.Equal(t, []string{"See job description"}, second.Requirements)
}

func TestAdzunaRequirementsCapped(t *testing.T) {
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, "Requirement number "+strings.Repeat("x", i+1))
	}
	job := mapAdzunaJob(adzunaJob{ID: "1", Title: "Dev", Description: strings.Join(lines, " • ")})
	assert.Len(t, job.Requirements, 8)
	assert.Equal(t, "Requirement number x", job.Requirements[0])
}

func TestAdzunaSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewAdzunaClient(AdzunaOptions{AppID: "id", AppKey: "bad", BaseURL: server.URL, RequestsPerSecond: 100})
	_, err := client.Search(context.Background(), JobSearchParams{})
	assert.Error(t, err)
}

type fakeAdzuna struct {
	jobs []models.JobPosting
	err  error
}

func (f *fakeAdzuna) Search(ctx context.Context, params JobSearchParams) ([]models.JobPosting, error) {
	return f.jobs, f.err
}

type fakeJobIndex struct {
	matches []JobMatch
	err     error

	stored    []string
	deleted   []string
	deleteErr error
}

func (f *fakeJobIndex) InitCollection(ctx context.Context) error { return nil }

func (f *fakeJobIndex) UpsertJob(ctx context.Context, job models.JobPosting, embedding []float32) error {
	return nil
}

func (f *fakeJobIndex) Nearest(ctx context.Context, embedding []float32, limit int) ([]JobMatch, error) {
	return f.matches, f.err
}

func (f *fakeJobIndex) DeleteJob(ctx context.Context, jobID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, jobID)
	return nil
}

func (f *fakeJobIndex) JobIDs(ctx context.Context) ([]string, error) {
	return f.stored, f.err
}

func TestPruneJobsRemovesStalePostings(t *testing.T) {
	index := &fakeJobIndex{stored: []string{"1", "adzuna-old", "2", "retired"}}
	keep := []models.JobPosting{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	removed, err := PruneJobs(context.Background(), index, keep)
	require.NoError(t, err)

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"adzuna-old", "retired"}, index.deleted)
}

func TestPruneJobsErrors(t *testing.T) {
	_, err := PruneJobs(context.Background(), &fakeJobIndex{err: errors.New("qdrant down")}, nil)
	assert.Error(t, err)

	index := &fakeJobIndex{stored: []string{"stale"}, deleteErr: errors.New("delete failed")}
	removed, err := PruneJobs(context.Background(), index, nil)
	assert.Error(t, err)
	assert.Zero(t, removed)
}

func TestJobServiceResolveByID(t *testing.T) {
	svc := NewJobService(nil, nil, nil, nil)

	job := svc.Resolve(context.Background(), "2", "")
	assert.Equal(t, "Frontend Engineer", job.Title)

	fallback := svc.Resolve(context.Background(), "does-not-exist", "")
	_, ok := NewJobCatalog(nil, nil).FindByID(fallback.ID)
	assert.True(t, ok, "unknown ids fall back to a catalog posting")
}

func TestJobServiceResolvesCachedAdzunaPostings(t *testing.T) {
	remote := models.JobPosting{ID: "adzuna-9", Title: "Remote Go Dev", RoleType: models.RoleFullstack}
	svc := NewJobService(nil, &fakeAdzuna{jobs: []models.JobPosting{remote}}, nil, nil)

	jobs, err := svc.List(context.Background(), JobSearchParams{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	assert.Equal(t, remote, svc.Resolve(context.Background(), "adzuna-9", ""))
}

func TestJobServiceResolveNearest(t *testing.T) {
	gemini := &fakeGemini{embedding: []float32{0.1, 0.2}}

	index := &fakeJobIndex{matches: []JobMatch{{JobID: "gone"}, {JobID: "6", Score: 0.91}}}
	svc := NewJobService(nil, nil, index, gemini)
	assert.Equal(t, "Data Engineer", svc.Resolve(context.Background(), "", "SQL and Airflow").Title)

	failing := NewJobService(nil, nil, &fakeJobIndex{err: errors.New("qdrant down")}, gemini)
	job := failing.Resolve(context.Background(), "", "SQL")
	assert.NotEmpty(t, job.ID)
}

func TestJobServiceListFallsBackToCatalog(t *testing.T) {
	svc := NewJobService(nil, &fakeAdzuna{err: errors.New("timeout")}, nil, nil)

	jobs, err := svc.List(context.Background(), JobSearchParams{Limit: 4})
	require.NoError(t, err)
	assert.Len(t, jobs, 4)

	jobs, err = NewJobService(nil, nil, nil, nil).List(context.Background(), JobSearchParams{})
	require.NoError(t, err)
	assert.Len(t, jobs, len(MockJobPostings()))
}

func TestClampJobLimit(t *testing.T) {
	assert.Equal(t, 20, ClampJobLimit(0))
	assert.Equal(t, 20, ClampJobLimit(-3))
	assert.Equal(t, 7, ClampJobLimit(7))
	assert.Equal(t, 50, ClampJobLimit(500))
}

func TestQdrantConfig(t *testing.T) {
	cfg, err := qdrantConfig("https://qdrant.example.com", "k")
	require.NoError(t, err)
	assert.Equal(t, "qdrant.example.com", cfg.Host)
	assert.Equal(t, 6334, cfg.Port)
	assert.True(t, cfg.UseTLS)

	cfg, err = qdrantConfig("http://localhost:7000", "")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.False(t, cfg.UseTLS)

	_, err = qdrantConfig("not a url", "")
	assert.Error(t, err)
}

func TestJobPointIDIsStable(t *testing.T) {
	assert.Equal(t, JobPointID("1"), JobPointID("1"))
	assert.NotEqual(t, JobPointID("1"), JobPointID("2"))
}
