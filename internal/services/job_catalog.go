package services

import (
	"math/rand/v2"
	"sync"

	"alfredoptarigan/careerforge/internal/models"
)

// MockJobPostings returns the built-in postings, one or more per role category.
func MockJobPostings() []models.JobPosting {
	return []models.JobPosting{
		{
			ID:       "1",
			Title:    "Senior Full-Stack Developer",
			Company:  "Tech Corp",
			Location: "Remote",
			RoleType: models.RoleFullstack,
			Requirements: []string{
				"5+ years of experience with React and Next.js",
				"Strong TypeScript skills",
				"Proficiency in Node.js and Express",
				"Experience with PostgreSQL or MongoDB",
				"Knowledge of RESTful APIs and GraphQL",
				"Familiarity with AWS or similar cloud platforms",
				"Understanding of CI/CD pipelines",
			},
			Preferred: []string{
				"Experience with Docker and Kubernetes",
				"Knowledge of microservices architecture",
				"Background in DevOps practices",
				"Contributions to open-source projects",
			},
			Description: "We're looking for an experienced full-stack developer to join our team...",
		},
		{
			ID:       "2",
			Title:    "Frontend Engineer",
			Company:  "Design Studio",
			Location: "San Francisco, CA",
			RoleType: models.RoleFrontend,
			Requirements: []string{
				"3+ years of React experience",
				"Proficiency in TypeScript",
				"Experience with Tailwind CSS or similar CSS frameworks",
				"Knowledge of state management (Redux, Zustand, or Context API)",
				"Familiarity with testing frameworks (Jest, React Testing Library)",
				"Understanding of responsive design principles",
			},
			Preferred: []string{
				"Experience with Next.js App Router",
				"Knowledge of animation libraries (Framer Motion)",
				"Design system experience",
				"Experience with shadcn/ui or similar component libraries",
			},
			Description: "Join our frontend team to build beautiful, performant user interfaces...",
		},
		{
			ID:       "3",
			Title:    "Backend Developer",
			Company:  "Data Systems Inc",
			Location: "New York, NY",
			RoleType: models.RoleBackend,
			Requirements: []string{
				"4+ years of backend development experience",
				"Proficiency in Python or Node.js",
				"Experience with SQL databases (PostgreSQL, MySQL)",
				"Knowledge of API design and development",
				"Understanding of authentication and authorization",
				"Experience with caching strategies (Redis)",
			},
			Preferred: []string{
				"Experience with FastAPI or Django",
				"Knowledge of message queues (RabbitMQ, Kafka)",
				"Understanding of distributed systems",
				"Experience with machine learning APIs",
			},
			Description: "We're building scalable backend systems for data processing...",
		},
		{
			ID:       "4",
			Title:    "DevOps Engineer",
			Company:  "CloudScale",
			Location: "Austin, TX",
			RoleType: models.RoleDevops,
			Requirements: []string{
				"3+ years operating production infrastructure",
				"Experience with CI/CD systems (GitHub Actions, GitLab CI)",
				"Infrastructure as code with Terraform",
				"Kubernetes administration and Helm",
				"Monitoring with Prometheus and Grafana",
				"Strong Linux and shell scripting skills",
			},
			Preferred: []string{
				"AWS or GCP certification",
				"Experience with service meshes (Istio, Linkerd)",
				"Incident response and SRE practices",
			},
			Description: "Help us keep a multi-region platform fast, observable, and reliable...",
		},
		{
			ID:       "5",
			Title:    "Mobile Developer",
			Company:  "AppWorks",
			Location: "Remote",
			RoleType: models.RoleMobile,
			Requirements: []string{
				"3+ years building mobile apps with React Native",
				"Proficiency in TypeScript",
				"Experience publishing to the App Store and Google Play",
				"Knowledge of mobile performance and offline storage",
				"Familiarity with push notifications and deep linking",
			},
			Preferred: []string{
				"Native iOS (Swift) or Android (Kotlin) experience",
				"Experience with Expo",
				"Mobile UX and accessibility background",
			},
			Description: "Build and ship cross-platform mobile experiences used by millions...",
		},
		{
			ID:       "6",
			Title:    "Data Engineer",
			Company:  "Insight Labs",
			Location: "Chicago, IL",
			RoleType: models.RoleData,
			Requirements: []string{
				"3+ years building data pipelines",
				"Advanced SQL and data modeling",
				"Experience with Python for data processing",
				"Knowledge of orchestration tools (Airflow, Dagster)",
				"Experience with a cloud data warehouse (BigQuery, Snowflake)",
			},
			Preferred: []string{
				"Streaming experience with Kafka or Spark",
				"BI tooling (Looker, Metabase)",
				"Exposure to ML feature pipelines",
			},
			Description: "Own the pipelines that feed analytics and machine learning across the company...",
		},
	}
}

// JobCatalog is an in-memory set of postings with random selection.
type JobCatalog struct {
	postings []models.JobPosting
	byID     map[string]int

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewJobCatalog uses the mock postings when postings is empty and a
// time-seeded source when rnd is nil.
func NewJobCatalog(postings []models.JobPosting, rnd *rand.Rand) *JobCatalog {
	if len(postings) == 0 {
		postings = MockJobPostings()
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	byID := make(map[string]int, len(postings))
	for i, p := range postings {
		byID[p.ID] = i
	}

	return &JobCatalog{postings: postings, byID: byID, rnd: rnd}
}

func (c *JobCatalog) List() []models.JobPosting {
	out := make([]models.JobPosting, len(c.postings))
	copy(out, c.postings)
	return out
}

func (c *JobCatalog) FindByID(id string) (models.JobPosting, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.JobPosting{}, false
	}
	return c.postings[i], true
}

func (c *JobCatalog) Random() models.JobPosting {
	c.mu.Lock()
	i := c.rnd.IntN(len(c.postings))
	c.mu.Unlock()
	return c.postings[i]
}
