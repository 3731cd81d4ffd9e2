package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/szaher/cxassist/internal/knowledge"
)

// KnowledgeSearch implements the search_knowledge_base tool.
type KnowledgeSearch struct {
	base  *knowledge.Base
	limit int
}

// NewKnowledgeSearch creates the search_knowledge_base executor.
// limit caps the number of returned articles; 0 means 3.
func NewKnowledgeSearch(base *knowledge.Base, limit int) *KnowledgeSearch {
	if limit <= 0 {
		limit = 3
	}
	return &KnowledgeSearch{base: base, limit: limit}
}

// Definition declares the search_knowledge_base schema.
func (e *KnowledgeSearch) Definition() Definition {
	return Definition{
		Name: "search_knowledge_base",
		Description: "Search the support knowledge base for policy and help articles. " +
			"Use this for questions about shipping, returns, refund policy, accounts or contacting support.",
		Params: map[string]Param{
			"query": {Type: "string", Description: "Keywords describing what the customer is asking about", Required: true},
		},
	}
}

// Execute runs the keyword search and returns matches as JSON. No matches
// is a normal result, not an error; the model decides what to tell the user.
func (e *KnowledgeSearch) Execute(_ context.Context, input map[string]any) (string, error) {
	query := input["query"].(string)

	articles := e.base.Search(query, e.limit)
	payload := map[string]any{
		"query":   query,
		"results": articles,
	}
	if len(articles) == 0 {
		payload["message"] = "no matching articles found"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("knowledge search: encode: %w", err)
	}
	return string(data), nil
}
