package accounting

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"xeromcp/internal/domain"
)

const invoicesPath = "/Invoices"

var (
	invoiceTypes    = []string{"ACCREC", "ACCPAY"}
	invoiceStatuses = []string{"DRAFT", "SUBMITTED", "AUTHORISED", "DELETED", "VOIDED"}
	lineAmountTypes = []string{"Exclusive", "Inclusive", "NoTax"}
)

// LineItem is one invoice line as sent to the API.
type LineItem struct {
	Description string   `json:"Description,omitempty"`
	Quantity    *float64 `json:"Quantity,omitempty"`
	UnitAmount  *float64 `json:"UnitAmount,omitempty"`
	AccountCode string   `json:"AccountCode,omitempty"`
	ItemCode    string   `json:"ItemCode,omitempty"`
	TaxType     string   `json:"TaxType,omitempty"`
	LineAmount  *float64 `json:"LineAmount,omitempty"`
}

type contactRef struct {
	ContactID string `json:"ContactID"`
}

type invoiceRecord struct {
	InvoiceID       string      `json:"InvoiceID,omitempty"`
	Type            string      `json:"Type,omitempty"`
	Contact         *contactRef `json:"Contact,omitempty"`
	LineItems       []LineItem  `json:"LineItems,omitempty"`
	Date            string      `json:"Date,omitempty"`
	DueDate         string      `json:"DueDate,omitempty"`
	Reference       string      `json:"Reference,omitempty"`
	InvoiceNumber   string      `json:"InvoiceNumber,omitempty"`
	Status          string      `json:"Status,omitempty"`
	LineAmountTypes string      `json:"LineAmountTypes,omitempty"`
	CurrencyCode    string      `json:"CurrencyCode,omitempty"`
}

type invoiceArgs struct {
	InvoiceID       string     `json:"InvoiceID,omitempty"`
	Type            string     `json:"Type,omitempty"`
	ContactID       string     `json:"ContactID,omitempty"`
	LineItems       []LineItem `json:"LineItems,omitempty"`
	Date            string     `json:"Date,omitempty"`
	DueDate         string     `json:"DueDate,omitempty"`
	Reference       string     `json:"Reference,omitempty"`
	InvoiceNumber   string     `json:"InvoiceNumber,omitempty"`
	Status          string     `json:"Status,omitempty"`
	LineAmountTypes string     `json:"LineAmountTypes,omitempty"`
	CurrencyCode    string     `json:"CurrencyCode,omitempty"`
}

func (a invoiceArgs) record() invoiceRecord {
	record := invoiceRecord{
		InvoiceID:       a.InvoiceID,
		Type:            a.Type,
		LineItems:       a.LineItems,
		Date:            a.Date,
		DueDate:         a.DueDate,
		Reference:       a.Reference,
		InvoiceNumber:   a.InvoiceNumber,
		Status:          a.Status,
		LineAmountTypes: a.LineAmountTypes,
		CurrencyCode:    a.CurrencyCode,
	}
	if a.ContactID != "" {
		record.Contact = &contactRef{ContactID: a.ContactID}
	}
	return record
}

func (a invoiceArgs) validateOptional(op string) error {
	if a.Status != "" {
		if err := requireOneOf(op, "Status", a.Status, invoiceStatuses...); err != nil {
			return err
		}
	}
	if a.LineAmountTypes != "" {
		if err := requireOneOf(op, "LineAmountTypes", a.LineAmountTypes, lineAmountTypes...); err != nil {
			return err
		}
	}
	return nil
}

func InvoicesToolset() Toolset {
	return Toolset{
		Domain:  domain.DomainInvoices,
		Summary: "Sales invoices and supplier bills",
		Actions: []Action{
			{
				Name:        "list",
				Description: "List invoices. Returns one page of up to 100 invoices, or every invoice with all=true.",
				InputSchema: objectSchema(listProperties(map[string]*jsonschema.Schema{
					"statuses":   arrayProp("Only invoices in these statuses", enumProp("Invoice status", invoiceStatuses...), 0),
					"contactIDs": arrayProp("Only invoices for these contacts", stringProp("Xero contact identifier"), 0),
				})),
				Handler: listInvoices,
			},
			{
				Name:        "get",
				Description: "Get a single invoice by InvoiceID or invoice number.",
				InputSchema: idSchema("InvoiceID", "Xero invoice identifier or invoice number"),
				Handler:     getInvoice,
			},
			{
				Name:        "create",
				Description: "Create an invoice (ACCREC) or bill (ACCPAY) for a contact with one or more line items.",
				InputSchema: objectSchema(invoiceProperties(), "Type", "ContactID", "LineItems"),
				Handler:     createInvoice,
			},
			{
				Name:        "update",
				Description: "Update an existing invoice. Only draft and submitted invoices accept line item changes.",
				InputSchema: objectSchema(withID("InvoiceID", "Xero invoice identifier", invoiceProperties()), "InvoiceID"),
				Handler:     updateInvoice,
			},
			{
				Name:        "email",
				Description: "Email an approved sales invoice to the contact's primary email address.",
				InputSchema: idSchema("InvoiceID", "Xero invoice identifier"),
				Handler:     emailInvoice,
			},
		},
	}
}

func invoiceProperties() map[string]*jsonschema.Schema {
	lineItem := objectSchema(map[string]*jsonschema.Schema{
		"Description": stringProp("Line description"),
		"Quantity":    numberProp("Quantity"),
		"UnitAmount":  numberProp("Unit price"),
		"AccountCode": stringProp("Account code the line posts to"),
		"ItemCode":    stringProp("Inventory item code"),
		"TaxType":     stringProp("Tax rate type"),
		"LineAmount":  numberProp("Line total, when not derived from quantity and unit amount"),
	}, "Description")
	return map[string]*jsonschema.Schema{
		"Type":            enumProp("ACCREC for a sales invoice, ACCPAY for a bill", invoiceTypes...),
		"ContactID":       stringProp("Xero contact identifier"),
		"LineItems":       arrayProp("Invoice lines", lineItem, 1),
		"Date":            dateProp("Invoice date, YYYY-MM-DD"),
		"DueDate":         dateProp("Due date, YYYY-MM-DD"),
		"Reference":       stringProp("Reference shown on the invoice"),
		"InvoiceNumber":   stringProp("Invoice number; generated when omitted"),
		"Status":          enumProp("Invoice status", invoiceStatuses...),
		"LineAmountTypes": enumProp("How line amounts treat tax", lineAmountTypes...),
		"CurrencyCode":    stringProp("ISO 4217 currency code"),
	}
}

func listInvoices(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "invoices.list"
	args, err := decodeArgs[struct {
		listArgs
		Statuses   []string `json:"statuses,omitempty"`
		ContactIDs []string `json:"contactIDs,omitempty"`
	}](op, raw)
	if err != nil {
		return nil, err
	}
	if err := args.validate(op); err != nil {
		return nil, err
	}
	for _, status := range args.Statuses {
		if err := requireOneOf(op, "statuses", status, invoiceStatuses...); err != nil {
			return nil, err
		}
	}
	query := args.query()
	if len(args.Statuses) > 0 {
		query.Set("Statuses", strings.Join(args.Statuses, ","))
	}
	if len(args.ContactIDs) > 0 {
		query.Set("ContactIDs", strings.Join(args.ContactIDs, ","))
	}
	return list(ctx, api, invoicesPath, "Invoices", args.listArgs, query)
}

func getInvoice(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "invoices.get"
	args, err := decodeArgs[invoiceArgs](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "InvoiceID", args.InvoiceID); err != nil {
		return nil, err
	}
	return api.Get(ctx, resourcePath("Invoices", args.InvoiceID), nil)
}

func createInvoice(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "invoices.create"
	args, err := decodeArgs[invoiceArgs](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireOneOf(op, "Type", args.Type, invoiceTypes...); err != nil {
		return nil, err
	}
	if err := requireString(op, "ContactID", args.ContactID); err != nil {
		return nil, err
	}
	if len(args.LineItems) == 0 {
		return nil, domain.InvalidArgument(op, "LineItems must contain at least one line")
	}
	if err := args.validateOptional(op); err != nil {
		return nil, err
	}
	args.InvoiceID = ""
	return api.Post(ctx, invoicesPath, envelope("Invoices", args.record()))
}

func updateInvoice(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "invoices.update"
	args, err := decodeArgs[invoiceArgs](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "InvoiceID", args.InvoiceID); err != nil {
		return nil, err
	}
	if args.Type != "" {
		if err := requireOneOf(op, "Type", args.Type, invoiceTypes...); err != nil {
			return nil, err
		}
	}
	if err := args.validateOptional(op); err != nil {
		return nil, err
	}
	return api.Post(ctx, resourcePath("Invoices", args.InvoiceID), envelope("Invoices", args.record()))
}

// emailInvoice returns a confirmation since the API answers with no content.
func emailInvoice(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "invoices.email"
	args, err := decodeArgs[invoiceArgs](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "InvoiceID", args.InvoiceID); err != nil {
		return nil, err
	}
	result, err := api.Post(ctx, resourcePath("Invoices", args.InvoiceID, "Email"), map[string]any{})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return map[string]any{"InvoiceID": args.InvoiceID, "Emailed": true}, nil
	}
	return result, nil
}
