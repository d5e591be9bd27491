package main

import (
	"context"
	"log"
	"os"
	"strings"

	"alfredoptarigan/careerforge/internal/config"
	"alfredoptarigan/careerforge/internal/models"
	"alfredoptarigan/careerforge/internal/services"
)

// Embeds the job catalog (plus live Adzuna postings when configured) into the
// Qdrant collection used for profile-to-job matching.
func main() {
	log.Println("🚀 Starting job ingestion...")

	// Load configuration
	cfg := config.Load()
	if cfg.Gemini.APIKey == "" {
		log.Fatal("❌ GEMINI_API_KEY is required for embeddings")
	}
	if cfg.Qdrant.URL == "" {
		log.Fatal("❌ QDRANT_URL is required")
	}

	// Initialize services
	geminiService, err := services.NewGeminiService(services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		EmbedModel: cfg.Gemini.EmbedModel,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	jobIndex, err := services.NewJobIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	ctx := context.Background()
	if err := jobIndex.InitCollection(ctx); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	jobs := services.MockJobPostings()
	if cfg.Adzuna.AppID != "" && cfg.Adzuna.AppKey != "" {
		adzuna := services.NewAdzunaClient(services.AdzunaOptions{
			AppID:  cfg.Adzuna.AppID,
			AppKey: cfg.Adzuna.AppKey,
		})
		live, err := adzuna.Search(ctx, services.JobSearchParams{
			Query:   "software developer",
			Country: "us",
			Limit:   services.MaxJobListLimit,
		})
		if err != nil {
			log.Printf("⚠️  Adzuna search failed, ingesting mock postings only: %v", err)
		} else {
			jobs = append(jobs, live...)
		}
	}

	promptBuilder := services.NewPromptBuilder(cfg.Limits.HistoryMessages)

	successCount := 0
	failCount := 0

	for _, job := range jobs {
		log.Printf("\n💼 Processing: %s at %s (%s)", job.Title, job.Company, job.ID)

		if err := ingestJob(ctx, geminiService, jobIndex, promptBuilder, job); err != nil {
			log.Printf("   ❌ %v", err)
			failCount++
			continue
		}

		log.Printf("   ✅ Stored %s", job.ID)
		successCount++
	}

	// Remove postings that are no longer in the catalog or the live search.
	removed, err := services.PruneJobs(ctx, jobIndex, jobs)
	if err != nil {
		log.Printf("⚠️  Failed to prune stale postings: %v", err)
	}

	// Summary
	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Ingestion Summary:")
	log.Printf("   ✅ Successful: %d postings", successCount)
	log.Printf("   ❌ Failed: %d postings", failCount)
	log.Printf("   🧹 Pruned: %d stale postings", removed)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		log.Println("⚠️  Some postings failed to ingest. Please check the logs above.")
		os.Exit(1)
	}

	log.Println("✅ All postings ingested successfully!")
}

func ingestJob(ctx context.Context, geminiService services.GeminiService, jobIndex services.JobIndex, pb *services.PromptBuilder, job models.JobPosting) error {
	embedding, err := geminiService.GenerateEmbedding(ctx, pb.BuildJobQuery(job))
	if err != nil {
		return err
	}
	return jobIndex.UpsertJob(ctx, job, embedding)
}
