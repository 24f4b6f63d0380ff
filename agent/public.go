package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// Reports is what the Accountant expert can compute from the ledger.
// The CLI provides the implementation so the agent stays ignorant of
// files and flags.
type Reports interface {
	// Income returns the income report as markdown.
	Income(ctx context.Context) (string, error)
	// Spending returns the spending report as markdown.
	Spending(ctx context.Context) (string, error)
	// CapitalGains returns the realized gains report as markdown.
	// method is "fifo" or "lifo".
	CapitalGains(ctx context.Context, method string, longTermDays int) (string, error)
	// Balances returns the account tree with balances as markdown.
	Balances(ctx context.Context) (string, error)
}

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is here primarily to understand the tax consequences of his cryptocurrency
			activity: what he earned, what he spent, and what he owes on realized gains.

			Devise a plan of questions to ask each expert and come up with the best response
			to the user's request.

			The user will assume you already know his wallets and coins, check the ledger
			first to understand what they are.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewAnalyst returns an expert grounding answers about coins and
// markets in a web search.
func NewAnalyst() *Expert {
	return &Expert{
		Name: "Analyst",
		Description: `This is an expert market analyst,
		very well aware of cryptocurrencies, exchanges, forks and airdrops,
		and the latest news about them.
		Ask the Analyst whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in cryptocurrency markets. You can search and find anything
			related to coins, exchanges, protocols and the events that affect their prices.
			You leverage Google Search to ground your assertions in a solid truth.
		`}}},
		},
	}
}

// NewAccountant returns the expert holding the ledger's report tools.
func NewAccountant(reports Reports) *Expert {
	lib := accountantTools(reports)

	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. He is in charge of reading the user's coin ledger.
		He can compute income, spending, account balances and realized capital gains.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's coin ledger.
				You know how to use the Tools to extract relevant information about the
				user's crypto activity and its tax consequences. You are part of a team
				of experts; pardon their approximative language and figure out what they meant.

				Use the available tools to get information about the user's ledger:
				  - income from mining, forks and airdrops
				  - spending and fees paid in crypto
				  - account balances
				  - realized capital gains, short and long term
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function from a declaration and a closure.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func accountantTools(reports Reports) []Function {
	simple := func(name, description string, run func(ctx context.Context) (string, error)) Function {
		return &Func{
			Decl: &genai.FunctionDeclaration{
				Name:        name,
				Description: description,
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown-formatted report.",
				},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				output, err := run(ctx)
				return respond(id, name, output, err)
			},
		}
	}

	gains := &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "CapitalGains",
			Description: `Computes the realized capital gains: every disposal matched against
			acquisition lots, split into short-term and long-term.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"method": {
						Type:        genai.TypeString,
						Description: "Cost basis method, 'fifo' (default) or 'lifo'.",
					},
					"long_term_days": {
						Type:        genai.TypeInteger,
						Description: "Holding period in days beyond which a gain is long-term. 365 by default.",
					},
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted capital gains report.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			method := "fifo"
			if m, ok := args["method"].(string); ok && m != "" {
				method = m
			}
			longTermDays := 365
			if d, ok := args["long_term_days"].(float64); ok && d > 0 {
				longTermDays = int(d)
			}
			output, err := reports.CapitalGains(ctx, method, longTermDays)
			return respond(id, "CapitalGains", output, err)
		},
	}

	return []Function{
		simple("Income", `Reports all income from mining, forks and airdrops with USD valuations.`, reports.Income),
		simple("Spending", `Reports all purchases and fees paid in crypto with USD valuations.`, reports.Spending),
		simple("Balances", `Shows the account tree with the per-coin balance of every account.`, reports.Balances),
		gains,
	}
}

func respond(id, name string, output string, err error) *genai.FunctionResponse {
	fresp := &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{}}
	if err != nil {
		fresp.Response["error"] = fmt.Sprintf("%v", err)
		return fresp
	}
	fresp.Response["output"] = output
	return fresp
}
