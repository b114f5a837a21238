// Package eval scores the retrieval and generation quality of the
// question-answering pipeline against a ground-truth set.
package eval

import (
	"context"
	"strings"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// Sample is one evaluated query with everything the metrics need:
// the ground truth and the pipeline's retrieved chunks and answer.
type Sample struct {
	Query       string
	GroundTruth string
	Chunks      []string
	Answer      string
}

// Metric scores one aspect of a sample on a 0-10 scale.
type Metric interface {
	Name() string
	Method() models.EvalMethod
	Compute(ctx context.Context, sample Sample) (float64, error)
}

// Embedder produces an embedding vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// negativeRetrievalFloor is the query-chunk similarity below which a
// chunk counts as irrelevant.
const negativeRetrievalFloor = 0.2

// ContextPrecision measures how relevant the retrieved chunks are to
// the query: the cosine similarity between the query and the joined
// chunks, scaled to 0-10.
type ContextPrecision struct {
	Embedder Embedder
}

func (ContextPrecision) Name() string              { return "context_precision" }
func (ContextPrecision) Method() models.EvalMethod { return models.MethodEmbedding }

func (m ContextPrecision) Compute(ctx context.Context, sample Sample) (float64, error) {
	if len(sample.Chunks) == 0 {
		return 0, nil
	}
	queryVec, err := m.Embedder.Embed(ctx, sample.Query)
	if err != nil {
		return 0, err
	}
	chunksVec, err := m.Embedder.Embed(ctx, strings.Join(sample.Chunks, " "))
	if err != nil {
		return 0, err
	}
	return similarityScore(cosine(queryVec, chunksVec)), nil
}

// ContextRecall measures whether the retrieved chunks contain the
// details of the ground-truth answer: the average of embedding
// similarity and lexical overlap between the ground truth and the
// joined chunks.
type ContextRecall struct {
	Embedder Embedder
}

func (ContextRecall) Name() string              { return "context_recall" }
func (ContextRecall) Method() models.EvalMethod { return models.MethodEmbedding }

func (m ContextRecall) Compute(ctx context.Context, sample Sample) (float64, error) {
	if len(sample.Chunks) == 0 {
		return 0, nil
	}
	joined := strings.Join(sample.Chunks, " ")
	truthVec, err := m.Embedder.Embed(ctx, sample.GroundTruth)
	if err != nil {
		return 0, err
	}
	chunksVec, err := m.Embedder.Embed(ctx, joined)
	if err != nil {
		return 0, err
	}
	semantic := similarityScore(cosine(truthVec, chunksVec))
	lexical := rougeL(sample.GroundTruth, joined) * 10
	return (semantic + lexical) / 2, nil
}

// ContextOverlap measures how much of the ground-truth answer's
// wording appears in the retrieved chunks, as a ROUGE-L F-measure
// scaled to 0-10. Purely lexical.
type ContextOverlap struct{}

func (ContextOverlap) Name() string              { return "context_overlap" }
func (ContextOverlap) Method() models.EvalMethod { return models.MethodLexical }

func (ContextOverlap) Compute(ctx context.Context, sample Sample) (float64, error) {
	if len(sample.Chunks) == 0 {
		return 0, nil
	}
	return rougeL(sample.GroundTruth, strings.Join(sample.Chunks, " ")) * 10, nil
}

// AnswerSimilarity measures how close the generated answer stays to
// the retrieved chunks: the cosine similarity between the answer and
// the joined chunks, scaled to 0-10.
type AnswerSimilarity struct {
	Embedder Embedder
}

func (AnswerSimilarity) Name() string              { return "answer_similarity" }
func (AnswerSimilarity) Method() models.EvalMethod { return models.MethodEmbedding }

func (m AnswerSimilarity) Compute(ctx context.Context, sample Sample) (float64, error) {
	if len(sample.Chunks) == 0 || sample.Answer == "" {
		return 0, nil
	}
	answerVec, err := m.Embedder.Embed(ctx, sample.Answer)
	if err != nil {
		return 0, err
	}
	chunksVec, err := m.Embedder.Embed(ctx, strings.Join(sample.Chunks, " "))
	if err != nil {
		return 0, err
	}
	return similarityScore(cosine(answerVec, chunksVec)), nil
}

// FaithfulCoverage measures how much of the ground truth is reflected
// in the generated answer, as a ROUGE-L F-measure scaled to 0-10.
type FaithfulCoverage struct{}

func (FaithfulCoverage) Name() string              { return "faithful_coverage" }
func (FaithfulCoverage) Method() models.EvalMethod { return models.MethodLexical }

func (FaithfulCoverage) Compute(ctx context.Context, sample Sample) (float64, error) {
	if strings.TrimSpace(sample.GroundTruth) == "" || strings.TrimSpace(sample.Answer) == "" {
		return 0, nil
	}
	return rougeL(sample.GroundTruth, sample.Answer) * 10, nil
}

// NegativeRetrieval measures the fraction of retrieved chunks that
// are irrelevant to the query, scaled to 0-10. Lower is better; an
// empty retrieval scores 10.
type NegativeRetrieval struct {
	Embedder Embedder
}

func (NegativeRetrieval) Name() string              { return "negative_retrieval" }
func (NegativeRetrieval) Method() models.EvalMethod { return models.MethodEmbedding }

func (m NegativeRetrieval) Compute(ctx context.Context, sample Sample) (float64, error) {
	if len(sample.Chunks) == 0 {
		return 10, nil
	}
	queryVec, err := m.Embedder.Embed(ctx, sample.Query)
	if err != nil {
		return 0, err
	}
	irrelevant := 0
	for _, chunk := range sample.Chunks {
		chunkVec, err := m.Embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, err
		}
		if cosine(queryVec, chunkVec) < negativeRetrievalFloor {
			irrelevant++
		}
	}
	return float64(irrelevant) / float64(len(sample.Chunks)) * 10, nil
}

// DefaultMetrics returns the full metric set: the lexical and
// embedding track plus the LLM-judged track.
func DefaultMetrics(embedder Embedder, judge Judge) []Metric {
	return []Metric{
		ContextPrecision{Embedder: embedder},
		ContextRecall{Embedder: embedder},
		ContextOverlap{},
		AnswerSimilarity{Embedder: embedder},
		FaithfulCoverage{},
		NegativeRetrieval{Embedder: embedder},
		JudgedContextPrecision{Judge: judge},
		JudgedContextRecall{Judge: judge},
		JudgedFaithfulness{Judge: judge},
		JudgedFaithfulCoverage{Judge: judge},
		JudgedNegativeRetrieval{Judge: judge},
	}
}
