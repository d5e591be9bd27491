package services

import (
	"context"
	"fmt"
	"log"
	"sync"
)

const DefaultEvaluationQueueSize = 100

type Worker interface {
	Start(ctx context.Context)
	Stop()
	// Enqueue never blocks; it reports false when the job was dropped.
	Enqueue(job EvaluationJob) bool
}

type worker struct {
	evaluator   QualityEvaluator
	jobQueue    chan EvaluationJob
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func NewWorker(evaluator QualityEvaluator, concurrency, queueSize int) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if queueSize <= 0 {
		queueSize = DefaultEvaluationQueueSize
	}
	return &worker{
		evaluator:   evaluator,
		jobQueue:    make(chan EvaluationJob, queueSize),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting evaluation worker with %d concurrent workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	log.Println("✅ Evaluation worker started successfully")
}

// Stop implements Worker. Jobs still queued are dropped.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		log.Println("🛑 Stopping evaluation worker...")
		close(w.stopChan)
		w.wg.Wait()
		if pending := len(w.jobQueue); pending > 0 {
			log.Printf("⚠️  Dropped %d queued evaluations on shutdown\n", pending)
		}
		log.Println("✅ Evaluation worker stopped")
	})
}

// Enqueue implements Worker.
func (w *worker) Enqueue(job EvaluationJob) bool {
	select {
	case <-w.stopChan:
		log.Printf("⚠️  Worker stopped, cannot enqueue evaluation %s\n", job.TraceID)
		return false
	default:
	}

	select {
	case w.jobQueue <- job:
		log.Printf("📥 Evaluation %s enqueued\n", job.TraceID)
		return true
	default:
		log.Printf("⚠️  Evaluation queue full, dropping %s\n", job.TraceID)
		return false
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped\n", workerID)
			return
		case <-ctx.Done():
			log.Printf("👷 Worker #%d context done\n", workerID)
			return
		case job := <-w.jobQueue:
			if err := w.run(ctx, job); err != nil {
				log.Printf("❌ Worker #%d failed evaluation %s: %v\n", workerID, job.TraceID, err)
			}
		}
	}
}

// run isolates a single evaluation so a panic cannot take the worker down.
func (w *worker) run(ctx context.Context, job EvaluationJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluation panic: %v", r)
		}
	}()

	w.evaluator.Evaluate(ctx, job)
	return nil
}
