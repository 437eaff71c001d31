package reranker

import (
	"fmt"
	"strings"
)

// DefaultPointwisePrompt asks for a single 1-10 relevance score.
const DefaultPointwisePrompt = "Given the following query and document, rate the semantic relevance on a scale of 1 to 10 and return only the numeric score.\n\n" +
	"Query: \"{query}\"\n\nDocument: \"{document}\"\n\n" +
	"Respond with a JSON object of the form {\"score\": <number>}.\n\nScore:"

// DefaultListwisePrompt asks for a full ordering with reasoning and query intent.
const DefaultListwisePrompt = "Rank the following search results for the query: '{query}' from most to least relevant. " +
	"For each result, provide an object with 'index' (the original position, starting at 1), " +
	"'score' (a relevance score between 1 and 10), and 'reasoning' (a brief explanation). " +
	"Also include a property 'query_intent' that describes how you interpreted the query. " +
	"Return the result as a JSON object with keys 'query_intent' and 'ranking'.\n\n" +
	"{results_block}"

// RenderPointwise fills {query} and {document}. Substitution is single-pass,
// so placeholder text inside the values is not expanded again.
func RenderPointwise(template, query, document string) string {
	return strings.NewReplacer("{query}", query, "{document}", document).Replace(template)
}

// RenderListwise fills {query} and {results_block}.
func RenderListwise(template, query, resultsBlock string) string {
	return strings.NewReplacer("{query}", query, "{results_block}", resultsBlock).Replace(template)
}

// BuildResultsBlock enumerates candidates in input order, numbered from 1.
// The number is the position the listwise verdict refers back to; for a
// freshly indexed baseline it equals OriginalIndex.
func BuildResultsBlock(candidates []SearchResult) string {
	var sb strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. Title: %s\n   Description: %s\n\n", i+1, c.Title, c.Description)
	}
	return sb.String()
}
