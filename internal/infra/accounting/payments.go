package accounting

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"xeromcp/internal/domain"
)

const paymentsPath = "/Payments"

type paymentArgs struct {
	InvoiceID   string   `json:"InvoiceID"`
	AccountID   string   `json:"AccountID,omitempty"`
	AccountCode string   `json:"AccountCode,omitempty"`
	Amount      *float64 `json:"Amount"`
	Date        string   `json:"Date,omitempty"`
	Reference   string   `json:"Reference,omitempty"`
}

type invoiceRef struct {
	InvoiceID string `json:"InvoiceID"`
}

type accountRef struct {
	AccountID string `json:"AccountID,omitempty"`
	Code      string `json:"Code,omitempty"`
}

type paymentRecord struct {
	Invoice   invoiceRef `json:"Invoice"`
	Account   accountRef `json:"Account"`
	Amount    float64    `json:"Amount"`
	Date      string     `json:"Date,omitempty"`
	Reference string     `json:"Reference,omitempty"`
}

func PaymentsToolset() Toolset {
	return Toolset{
		Domain:  domain.DomainPayments,
		Summary: "Payments applied to invoices",
		Actions: []Action{
			{
				Name:        "list",
				Description: "List payments. Returns one page of up to 100 payments, or every payment with all=true.",
				InputSchema: objectSchema(listProperties(nil)),
				Handler:     listPayments,
			},
			{
				Name:        "get",
				Description: "Get a single payment by PaymentID.",
				InputSchema: idSchema("PaymentID", "Xero payment identifier"),
				Handler:     getPayment,
			},
			{
				Name:        "create",
				Description: "Apply a payment to an invoice from a bank account identified by AccountID or AccountCode.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"InvoiceID":   stringProp("Invoice the payment applies to"),
					"AccountID":   stringProp("Bank account identifier"),
					"AccountCode": stringProp("Bank account code, used when AccountID is omitted"),
					"Amount":      numberProp("Payment amount"),
					"Date":        dateProp("Payment date, YYYY-MM-DD"),
					"Reference":   stringProp("Payment reference"),
				}, "InvoiceID", "Amount"),
				Handler: createPayment,
			},
			{
				Name:        "delete",
				Description: "Delete a payment. The API marks the payment as DELETED rather than removing it.",
				InputSchema: idSchema("PaymentID", "Xero payment identifier"),
				Handler:     deletePayment,
			},
		},
	}
}

func listPayments(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "payments.list"
	args, err := decodeArgs[listArgs](op, raw)
	if err != nil {
		return nil, err
	}
	if err := args.validate(op); err != nil {
		return nil, err
	}
	return list(ctx, api, paymentsPath, "Payments", args, args.query())
}

type paymentIDArgs struct {
	PaymentID string `json:"PaymentID"`
}

func getPayment(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "payments.get"
	args, err := decodeArgs[paymentIDArgs](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "PaymentID", args.PaymentID); err != nil {
		return nil, err
	}
	return api.Get(ctx, resourcePath("Payments", args.PaymentID), nil)
}

func createPayment(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "payments.create"
	args, err := decodeArgs[paymentArgs](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "InvoiceID", args.InvoiceID); err != nil {
		return nil, err
	}
	if args.AccountID == "" && args.AccountCode == "" {
		return nil, domain.InvalidArgument(op, "AccountID or AccountCode is required")
	}
	if args.Amount == nil {
		return nil, domain.InvalidArgument(op, "Amount is required")
	}
	record := paymentRecord{
		Invoice:   invoiceRef{InvoiceID: args.InvoiceID},
		Account:   accountRef{AccountID: args.AccountID, Code: args.AccountCode},
		Amount:    *args.Amount,
		Date:      args.Date,
		Reference: args.Reference,
	}
	return api.Put(ctx, paymentsPath, envelope("Payments", record))
}

func deletePayment(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "payments.delete"
	args, err := decodeArgs[paymentIDArgs](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "PaymentID", args.PaymentID); err != nil {
		return nil, err
	}
	return api.Post(ctx, resourcePath("Payments", args.PaymentID), map[string]any{"Status": "DELETED"})
}
