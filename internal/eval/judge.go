package eval

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// Judge asks an LLM to score an evaluation prompt.
type Judge interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var scorePattern = regexp.MustCompile(`(\d+(\.\d+)?)`)

// ParseScore extracts the numeric score from a judge reply. The reply
// should be a bare number; when the model adds text anyway, the first
// number in it is used. Scores are clamped to [0, 10].
func ParseScore(response string) (float64, error) {
	trimmed := strings.TrimSpace(response)
	score, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		match := scorePattern.FindString(trimmed)
		if match == "" {
			return 0, fmt.Errorf("no numeric score in judge reply %q", response)
		}
		score, _ = strconv.ParseFloat(match, 64)
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}

func judgeScore(ctx context.Context, judge Judge, prompt string) (float64, error) {
	response, err := judge.Complete(ctx, prompt)
	if err != nil {
		return 0, fmt.Errorf("judge call failed: %w", err)
	}
	return ParseScore(response)
}

func joinChunks(chunks []string) string {
	return strings.Join(chunks, "\n---\n")
}

// JudgedContextPrecision asks the judge how relevant the retrieved
// chunks are to the query.
type JudgedContextPrecision struct {
	Judge Judge
}

func (JudgedContextPrecision) Name() string              { return "context_precision_llm" }
func (JudgedContextPrecision) Method() models.EvalMethod { return models.MethodLLMJudged }

func (m JudgedContextPrecision) Compute(ctx context.Context, sample Sample) (float64, error) {
	prompt := fmt.Sprintf(`You are an expert judge evaluating retrieval quality.

You are given:
<query>
%s
</query>

<retrieved_chunks>
%s
</retrieved_chunks>

Rate how precisely these retrieved chunks match the query.

- Score 10 if all retrieved chunks are perfectly relevant.
- Score 5 if approximately half of the retrieved chunks are relevant.
- Score 0 if none of the retrieved chunks are relevant.

Your response must be strictly a single integer between 0 and 10 with no additional text, punctuation, or explanation.`,
		sample.Query, joinChunks(sample.Chunks))
	return judgeScore(ctx, m.Judge, prompt)
}

// JudgedContextRecall asks the judge how completely the retrieved
// chunks cover the ground-truth answer.
type JudgedContextRecall struct {
	Judge Judge
}

func (JudgedContextRecall) Name() string              { return "context_recall_llm" }
func (JudgedContextRecall) Method() models.EvalMethod { return models.MethodLLMJudged }

func (m JudgedContextRecall) Compute(ctx context.Context, sample Sample) (float64, error) {
	prompt := fmt.Sprintf(`You are an expert judge evaluating retrieval completeness.

You are given:
<ground_truth_answer>
%s
</ground_truth_answer>

<retrieved_chunks>
%s
</retrieved_chunks>

Rate how comprehensively these retrieved chunks cover the details of the ground truth answer.

- Score 10 if the retrieved chunks fully cover all details.
- Score 5 if only some details are covered.
- Score 0 if none of the details are covered.

Your response must be strictly a single integer between 0 and 10 with no additional text or punctuation.`,
		sample.GroundTruth, joinChunks(sample.Chunks))
	return judgeScore(ctx, m.Judge, prompt)
}

// JudgedFaithfulness asks the judge whether the generated answer stays
// faithful to the retrieved context.
type JudgedFaithfulness struct {
	Judge Judge
}

func (JudgedFaithfulness) Name() string              { return "faithfulness_llm" }
func (JudgedFaithfulness) Method() models.EvalMethod { return models.MethodLLMJudged }

func (m JudgedFaithfulness) Compute(ctx context.Context, sample Sample) (float64, error) {
	prompt := fmt.Sprintf(`You are an expert faithfulness evaluator.

<retrieved_context>
%s
</retrieved_context>

<generated_answer>
%s
</generated_answer>

How faithful is the generated answer to the retrieved context?

Provide a score from 0 to 10, where:
- 10 means the answer is perfectly faithful to the retrieved context.
- 5 means the answer is somewhat faithful, but adds extra information.
- 0 means the answer is completely unfaithful.

Respond with a single numeric score (no extra text).`,
		joinChunks(sample.Chunks), sample.Answer)
	return judgeScore(ctx, m.Judge, prompt)
}

// JudgedFaithfulCoverage asks the judge how much of the ground truth
// is present in the generated answer.
type JudgedFaithfulCoverage struct {
	Judge Judge
}

func (JudgedFaithfulCoverage) Name() string              { return "faithful_coverage_llm" }
func (JudgedFaithfulCoverage) Method() models.EvalMethod { return models.MethodLLMJudged }

func (m JudgedFaithfulCoverage) Compute(ctx context.Context, sample Sample) (float64, error) {
	prompt := fmt.Sprintf(`You are an expert judge evaluating answer coverage.

<ground_truth_answer>
%s
</ground_truth_answer>

<generated_answer>
%s
</generated_answer>

How much of the ground truth answer is present in the generated answer?

Provide a score from 0 to 10, where:
- 10 means the generated answer fully contains all the important details from the ground truth.
- 5 means it contains partial details.
- 0 means it contains none of the important details.

Respond strictly with a single numeric score (no extra text).`,
		sample.GroundTruth, sample.Answer)
	return judgeScore(ctx, m.Judge, prompt)
}

// JudgedNegativeRetrieval asks the judge how much of the retrieved
// content is off-topic. Lower is better.
type JudgedNegativeRetrieval struct {
	Judge Judge
}

func (JudgedNegativeRetrieval) Name() string              { return "negative_retrieval_llm" }
func (JudgedNegativeRetrieval) Method() models.EvalMethod { return models.MethodLLMJudged }

func (m JudgedNegativeRetrieval) Compute(ctx context.Context, sample Sample) (float64, error) {
	prompt := fmt.Sprintf(`You are a strict judge identifying irrelevant or junk information in retrieved content.

USER QUERY:
"%s"

RETRIEVED CHUNKS:
%s

Count how many of the retrieved chunks are completely unrelated to the query.

- Score 0 if all chunks are clearly relevant.
- Score 5 if about half of the content is off-topic or unrelated.
- Score 10 if most or all chunks are clearly irrelevant or nonsensical.

Return a SINGLE INTEGER between 0 and 10. No explanation, no punctuation, just the score.`,
		sample.Query, joinChunks(sample.Chunks))
	return judgeScore(ctx, m.Judge, prompt)
}
