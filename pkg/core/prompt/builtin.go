package prompt

// Built-in template ids.
const (
	AnalystQA        = "qa.analyst"
	StructuredQA     = "qa.structured"
	CondenseQuestion = "qa.condense"
	CompareCompanies = "comparison.companies"
	SummarizeSection = "summary.section"
)

func registerBuiltins(r *Registry) {
	for _, t := range builtinTemplates {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

var builtinTemplates = []*Template{
	{
		ID:          AnalystQA,
		Name:        "Filing Analyst QA",
		Category:    "qa",
		Description: "Answers a question against retrieved 10-K passages with citations.",
		Version:     "1.0",
		SystemPrompt: `You are an expert SEC filings analyst with deep knowledge of 10-K annual reports.
Use the provided context to answer questions with the precision expected in financial analysis.

Guidelines:
1. Only use information from the provided context.
2. Cite the source for every claim: company name, filing date and section (e.g. "Apple's 2024 10-K, Item 1A Risk Factors").
3. Include specific numbers, percentages and dollar amounts when the context provides them.
4. Distinguish historical fact from management's forward-looking statements.
5. If the context does not contain enough information, say so explicitly instead of guessing: "Based on the available SEC filings, I cannot fully answer this question because <reason>."`,
		UserTmpl: `Context from SEC 10-K Filings:
{{.Context}}

Question: {{.Question}}

Analysis:`,
	},
	{
		ID:          StructuredQA,
		Name:        "Structured Filing QA",
		Category:    "qa",
		Description: "Same as qa.analyst but returns a JSON object.",
		Version:     "1.0",
		SystemPrompt: `You are an expert SEC filings analyst. Answer the question using only the provided context.
Respond with a single JSON object and nothing else:
{
  "answer": "your full answer with citations (company, filing date, section)",
  "confidence": 0.0-1.0,
  "follow_up_questions": ["up to three follow-up questions an analyst might ask next"]
}
If the context is insufficient, say so in the answer and lower the confidence accordingly. Never invent figures.`,
		UserTmpl: `Context from SEC 10-K Filings:
{{.Context}}

Question: {{.Question}}`,
	},
	{
		ID:          CondenseQuestion,
		Name:        "Condense Follow-Up Question",
		Category:    "qa",
		Description: "Rewrites a follow-up question into a standalone one using the conversation so far.",
		Version:     "1.0",
		SystemPrompt: `Given a conversation and a follow-up question, rephrase the follow-up into a standalone
question that preserves all relevant context. Return only the rewritten question.`,
		UserTmpl: `Chat History:
{{.ChatHistory}}

Follow Up Input: {{.Question}}

Standalone Question:`,
	},
	{
		ID:          CompareCompanies,
		Name:        "Company Comparison",
		Category:    "comparison",
		Description: "Structured comparison of multiple companies from their filings.",
		Version:     "1.0",
		SystemPrompt: `You are a senior equity research analyst comparing companies based on their SEC 10-K filings.
Produce an institutional-quality comparison covering business models, key financial metrics,
risk profiles and competitive position. Cite the specific company and filing date for each
data point, note differing fiscal years, and present facts rather than recommendations.`,
		UserTmpl: `Context from SEC 10-K Filings:
{{.Context}}

Question: {{.Question}}

Comparative Analysis:`,
	},
	{
		ID:          SummarizeSection,
		Name:        "Section Summary",
		Category:    "summary",
		Description: "Concise structured summary of filing content on a topic.",
		Version:     "1.0",
		SystemPrompt: `You are a financial analyst summarizing SEC 10-K filing content.
Produce a clear, structured summary of the key points; quantify where possible.`,
		UserTmpl: `Context:
{{.Context}}

Topic: {{.Question}}

Summary:`,
	},
}
