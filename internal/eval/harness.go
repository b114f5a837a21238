package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// GroundTruth is one entry of the evaluation set: a question, its
// reference answer, and optionally the chunks that should support it.
type GroundTruth struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Chunks   []string `json:"chunks,omitempty"`
}

// LoadGroundTruth reads a JSON evaluation set from disk.
func LoadGroundTruth(path string) ([]GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ground truth: %w", err)
	}
	var set []GroundTruth
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing ground truth: %w", err)
	}
	return set, nil
}

// Retriever finds evidence for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error)
}

// Generator produces an answer from evidence.
type Generator interface {
	Generate(ctx context.Context, query string, evidence []models.RetrievalResult) models.Answer
}

// Config holds harness parameters.
type Config struct {
	TopK        int
	Concurrency int
}

// Harness runs the metric set over ground-truth queries. Retrieval
// and generation happen once per query; every metric scores the same
// sample.
type Harness struct {
	retriever Retriever
	generator Generator
	metrics   []Metric
	logger    *Logger
	config    Config
}

// New creates an evaluation harness.
func New(retriever Retriever, generator Generator, metrics []Metric, logger *Logger, config Config) *Harness {
	if config.TopK <= 0 {
		config.TopK = 5
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 2
	}
	return &Harness{
		retriever: retriever,
		generator: generator,
		metrics:   metrics,
		logger:    logger,
		config:    config,
	}
}

// QueryResult holds every metric score for one query.
type QueryResult struct {
	Query  string
	Answer models.Answer
	Scores map[string]float64
	Errors []string
}

// Evaluate scores a single ground-truth entry. A metric failure is
// recorded and does not abort the remaining metrics.
func (h *Harness) Evaluate(ctx context.Context, truth GroundTruth) (*QueryResult, error) {
	evidence, err := h.retriever.Retrieve(ctx, truth.Question, h.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieving for %q: %w", truth.Question, err)
	}
	answer := h.generator.Generate(ctx, truth.Question, evidence)

	chunks := make([]string, len(evidence))
	for i, ev := range evidence {
		chunks[i] = ev.Text
	}
	sample := Sample{
		Query:       truth.Question,
		GroundTruth: truth.Answer,
		Chunks:      chunks,
		Answer:      answer.Text,
	}

	result := &QueryResult{
		Query:  truth.Question,
		Answer: answer,
		Scores: make(map[string]float64),
	}
	for _, metric := range h.metrics {
		score, err := metric.Compute(ctx, sample)
		if err != nil {
			slog.Warn("metric failed", "metric", metric.Name(), "query", truth.Question, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", metric.Name(), err))
			continue
		}
		result.Scores[metric.Name()] = score

		if h.logger != nil {
			record := models.EvaluationRecord{
				Query:     truth.Question,
				Metric:    metric.Name(),
				Method:    metric.Method(),
				Score:     score,
				Timestamp: time.Now().UTC(),
			}
			if err := h.logger.Log(record); err != nil {
				slog.Error("failed to log eval record", "metric", metric.Name(), "error", err)
			}
		}
	}
	return result, nil
}

// EvaluateSet runs the full ground-truth set with bounded
// concurrency. One query's failure does not stop the others; failed
// queries come back as results with an error entry and no scores.
func (h *Harness) EvaluateSet(ctx context.Context, set []GroundTruth) []*QueryResult {
	results := make([]*QueryResult, len(set))
	sem := make(chan struct{}, h.config.Concurrency)
	var wg sync.WaitGroup

	for i, truth := range set {
		wg.Add(1)
		go func(i int, truth GroundTruth) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := h.Evaluate(ctx, truth)
			if err != nil {
				slog.Error("query evaluation failed", "query", truth.Question, "error", err)
				result = &QueryResult{
					Query:  truth.Question,
					Scores: map[string]float64{},
					Errors: []string{err.Error()},
				}
			}
			results[i] = result
		}(i, truth)
	}
	wg.Wait()
	return results
}

// Summarize averages each metric across results, skipping queries the
// metric failed on.
func Summarize(results []*QueryResult) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range results {
		for name, score := range r.Scores {
			sums[name] += score
			counts[name]++
		}
	}
	averages := make(map[string]float64, len(sums))
	for name, sum := range sums {
		averages[name] = sum / float64(counts[name])
	}
	return averages
}
