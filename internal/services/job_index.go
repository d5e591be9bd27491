package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"alfredoptarigan/careerforge/internal/models"
)

const (
	DefaultJobCollection = "careerforge_jobs"

	// text-embedding-004 output size
	jobVectorSize = 768

	jobScrollPageSize = 256
)

var jobPointNamespace = uuid.MustParse("6f1c9a52-3f0e-4c1b-9a57-0d7be0f8a3c4")

// JobIndex stores job posting embeddings for profile-to-job matching.
type JobIndex interface {
	InitCollection(ctx context.Context) error
	UpsertJob(ctx context.Context, job models.JobPosting, embedding []float32) error
	Nearest(ctx context.Context, embedding []float32, limit int) ([]JobMatch, error)
	DeleteJob(ctx context.Context, jobID string) error
	// JobIDs lists the job ids of every stored posting.
	JobIDs(ctx context.Context) ([]string, error)
}

type JobMatch struct {
	JobID    string
	Title    string
	RoleType models.JobRoleType
	Score    float32
}

type jobIndex struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewJobIndex(urlStr, apiKey, collectionName string) (JobIndex, error) {
	cfg, err := qdrantConfig(urlStr, apiKey)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	if collectionName == "" {
		collectionName = DefaultJobCollection
	}

	return &jobIndex{
		client:         client,
		collectionName: collectionName,
		vectorSize:     jobVectorSize,
	}, nil
}

// qdrantConfig maps an http(s) URL onto the gRPC client config; the port defaults to 6334.
func qdrantConfig(urlStr, apiKey string) (*qdrant.Config, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid Qdrant URL: missing host in %q", urlStr)
	}

	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	return &qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsed.Scheme == "https",
	}, nil
}

// InitCollection implements JobIndex.
func (q *jobIndex) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		log.Printf("✅ Qdrant collection '%s' already exists\n", q.collectionName)
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

// UpsertJob implements JobIndex. Re-ingesting a posting overwrites its point.
func (q *jobIndex) UpsertJob(ctx context.Context, job models.JobPosting, embedding []float32) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(JobPointID(job.ID).String()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"job_id":    job.ID,
			"title":     job.Title,
			"company":   job.Company,
			"role_type": string(job.RoleType),
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert job %s: %w", job.ID, err)
	}

	return nil
}

// Nearest implements JobIndex.
func (q *jobIndex) Nearest(ctx context.Context, embedding []float32, limit int) ([]JobMatch, error) {
	if limit <= 0 {
		limit = 1
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs: %w", err)
	}

	matches := make([]JobMatch, 0, len(points))
	for _, point := range points {
		match := JobMatch{
			JobID:    payloadString(point.Payload, "job_id"),
			Title:    payloadString(point.Payload, "title"),
			RoleType: models.JobRoleType(payloadString(point.Payload, "role_type")),
			Score:    point.Score,
		}
		if match.JobID == "" {
			continue
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// DeleteJob implements JobIndex.
func (q *jobIndex) DeleteJob(ctx context.Context, jobID string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("job_id", jobID),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", jobID, err)
	}

	return nil
}

// JobIDs implements JobIndex.
func (q *jobIndex) JobIDs(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		offset *qdrant.PointId
	)

	for {
		points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: q.collectionName,
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(jobScrollPageSize)),
			WithPayload:    qdrant.NewWithPayloadInclude("job_id"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list jobs: %w", err)
		}

		// The offset point is returned again as the first point of the next page.
		if offset != nil && len(points) > 0 {
			points = points[1:]
		}
		if len(points) == 0 {
			return ids, nil
		}

		for _, point := range points {
			if id := payloadString(point.Payload, "job_id"); id != "" {
				ids = append(ids, id)
			}
		}
		offset = points[len(points)-1].Id
	}
}

// PruneJobs deletes stored postings whose id is not in keep and returns how many were removed.
func PruneJobs(ctx context.Context, index JobIndex, keep []models.JobPosting) (int, error) {
	stored, err := index.JobIDs(ctx)
	if err != nil {
		return 0, err
	}

	current := make(map[string]struct{}, len(keep))
	for _, job := range keep {
		current[job.ID] = struct{}{}
	}

	removed := 0
	for _, id := range stored {
		if _, ok := current[id]; ok {
			continue
		}
		if err := index.DeleteJob(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}

	return removed, nil
}

// JobPointID is the stable point id of a posting.
func JobPointID(jobID string) uuid.UUID {
	return uuid.NewSHA1(jobPointNamespace, []byte(jobID))
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}
