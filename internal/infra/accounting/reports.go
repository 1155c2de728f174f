package accounting

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"

	"xeromcp/internal/domain"
)

var timeframes = []string{"MONTH", "QUARTER", "YEAR"}

type reportArgs struct {
	Date           string `json:"date,omitempty"`
	FromDate       string `json:"fromDate,omitempty"`
	ToDate         string `json:"toDate,omitempty"`
	Periods        int    `json:"periods,omitempty"`
	Timeframe      string `json:"timeframe,omitempty"`
	PaymentsOnly   bool   `json:"paymentsOnly,omitempty"`
	StandardLayout bool   `json:"standardLayout,omitempty"`
	ContactID      string `json:"contactId,omitempty"`
}

type reportSpec struct {
	action      string
	endpoint    string
	description string
	params      []string
	required    []string
}

var reportSpecs = []reportSpec{
	{
		action:      "profit_and_loss",
		endpoint:    "ProfitAndLoss",
		description: "Profit and loss report for a date range, optionally compared across periods.",
		params:      []string{"fromDate", "toDate", "periods", "timeframe", "standardLayout", "paymentsOnly"},
	},
	{
		action:      "balance_sheet",
		endpoint:    "BalanceSheet",
		description: "Balance sheet as at a date, optionally compared across periods.",
		params:      []string{"date", "periods", "timeframe", "standardLayout", "paymentsOnly"},
	},
	{
		action:      "trial_balance",
		endpoint:    "TrialBalance",
		description: "Trial balance as at a date.",
		params:      []string{"date", "paymentsOnly"},
	},
	{
		action:      "aged_receivables",
		endpoint:    "AgedReceivablesByContact",
		description: "Aged receivables for one contact.",
		params:      []string{"contactId", "date", "fromDate", "toDate"},
		required:    []string{"contactId"},
	},
	{
		action:      "bank_summary",
		endpoint:    "BankSummary",
		description: "Bank account balances and movements for a date range.",
		params:      []string{"fromDate", "toDate"},
	},
}

var reportParamSchemas = map[string]*jsonschema.Schema{
	"date":           dateProp("Report date, YYYY-MM-DD"),
	"fromDate":       dateProp("Start of the range, YYYY-MM-DD"),
	"toDate":         dateProp("End of the range, YYYY-MM-DD"),
	"periods":        integerProp("Number of comparison periods", 1),
	"timeframe":      enumProp("Length of each comparison period", timeframes...),
	"standardLayout": boolProp("Use the standard layout instead of custom report layouts"),
	"paymentsOnly":   boolProp("Cash basis: only include transactions with payments"),
	"contactId":      stringProp("Xero contact identifier"),
}

func ReportsToolset() Toolset {
	actions := make([]Action, 0, len(reportSpecs))
	for _, spec := range reportSpecs {
		props := make(map[string]*jsonschema.Schema, len(spec.params))
		for _, param := range spec.params {
			props[param] = reportParamSchemas[param]
		}
		actions = append(actions, Action{
			Name:        spec.action,
			Description: spec.description,
			InputSchema: objectSchema(props, spec.required...),
			Handler:     reportHandler(spec),
		})
	}
	return Toolset{
		Domain:  domain.DomainReports,
		Summary: "Financial reports",
		Actions: actions,
	}
}

func reportHandler(spec reportSpec) Handler {
	op := "reports." + spec.action
	return func(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
		args, err := decodeArgs[reportArgs](op, raw)
		if err != nil {
			return nil, err
		}
		if args.Timeframe != "" {
			if err := requireOneOf(op, "timeframe", args.Timeframe, timeframes...); err != nil {
				return nil, err
			}
		}
		if args.Periods < 0 {
			return nil, domain.InvalidArgument(op, "periods must be 1 or greater")
		}
		values := args.values()
		for _, field := range spec.required {
			if err := requireString(op, field, values[field]); err != nil {
				return nil, err
			}
		}
		query := url.Values{}
		for _, param := range spec.params {
			setIfNotEmpty(query, param, values[param])
		}
		return api.Get(ctx, "/Reports/"+spec.endpoint, query)
	}
}

func (a reportArgs) values() map[string]string {
	values := map[string]string{
		"date":      a.Date,
		"fromDate":  a.FromDate,
		"toDate":    a.ToDate,
		"timeframe": a.Timeframe,
		"contactId": a.ContactID,
	}
	if a.Periods > 0 {
		values["periods"] = strconv.Itoa(a.Periods)
	}
	if a.PaymentsOnly {
		values["paymentsOnly"] = "true"
	}
	if a.StandardLayout {
		values["standardLayout"] = "true"
	}
	return values
}
