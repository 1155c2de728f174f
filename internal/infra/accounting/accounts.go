package accounting

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"xeromcp/internal/domain"
)

const accountsPath = "/Accounts"

var accountTypes = []string{
	"BANK", "CURRENT", "CURRLIAB", "DEPRECIATN", "DIRECTCOSTS", "EQUITY", "EXPENSE", "FIXED",
	"INVENTORY", "LIABILITY", "NONCURRENT", "OTHERINCOME", "OVERHEADS", "PREPAYMENT", "REVENUE",
	"SALES", "TERMLIAB",
}

type accountFields struct {
	Code                    string `json:"Code,omitempty"`
	Name                    string `json:"Name,omitempty"`
	Type                    string `json:"Type,omitempty"`
	Description             string `json:"Description,omitempty"`
	TaxType                 string `json:"TaxType,omitempty"`
	BankAccountNumber       string `json:"BankAccountNumber,omitempty"`
	EnablePaymentsToAccount *bool  `json:"EnablePaymentsToAccount,omitempty"`
	Status                  string `json:"Status,omitempty"`
}

type accountUpdate struct {
	AccountID string `json:"AccountID"`
	accountFields
}

// AccountsToolset covers the chart of accounts. The accounts endpoint is not paged.
func AccountsToolset() Toolset {
	return Toolset{
		Domain:  domain.DomainAccounts,
		Summary: "Chart of accounts",
		Actions: []Action{
			{
				Name:        "list",
				Description: "List the chart of accounts, optionally filtered and ordered.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"where": stringProp(`Xero filter expression, e.g. Type=="BANK"`),
					"order": stringProp("Sort expression, e.g. Code ASC"),
				}),
				Handler: listAccounts,
			},
			{
				Name:        "get",
				Description: "Get a single account by AccountID.",
				InputSchema: idSchema("AccountID", "Xero account identifier"),
				Handler:     getAccount,
			},
			{
				Name:        "create",
				Description: "Create an account. Code, Name and Type are required; bank accounts also need BankAccountNumber.",
				InputSchema: objectSchema(accountProperties(), "Code", "Name", "Type"),
				Handler:     createAccount,
			},
			{
				Name:        "update",
				Description: "Update an existing account.",
				InputSchema: objectSchema(withID("AccountID", "Xero account identifier", accountProperties()), "AccountID"),
				Handler:     updateAccount,
			},
			{
				Name:        "delete",
				Description: "Delete an account that has no transactions. Use update with Status ARCHIVED otherwise.",
				InputSchema: idSchema("AccountID", "Xero account identifier"),
				Handler:     deleteAccount,
			},
		},
	}
}

func accountProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"Code":                    stringProp("Customer-defined alphanumeric account code"),
		"Name":                    stringProp("Account name"),
		"Type":                    enumProp("Account type", accountTypes...),
		"Description":             stringProp("Account description"),
		"TaxType":                 stringProp("Default tax type"),
		"BankAccountNumber":       stringProp("Bank account number, for BANK accounts"),
		"EnablePaymentsToAccount": boolProp("Allow payments to be applied to this account"),
		"Status":                  enumProp("Account status", "ACTIVE", "ARCHIVED"),
	}
}

func listAccounts(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	args, err := decodeArgs[listArgs]("accounts.list", raw)
	if err != nil {
		return nil, err
	}
	return api.Get(ctx, accountsPath, args.query())
}

type accountIDArgs struct {
	AccountID string `json:"AccountID"`
}

func getAccount(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "accounts.get"
	args, err := decodeArgs[accountIDArgs](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "AccountID", args.AccountID); err != nil {
		return nil, err
	}
	return api.Get(ctx, resourcePath("Accounts", args.AccountID), nil)
}

func createAccount(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "accounts.create"
	args, err := decodeArgs[accountFields](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "Code", args.Code); err != nil {
		return nil, err
	}
	if err := requireString(op, "Name", args.Name); err != nil {
		return nil, err
	}
	if err := requireOneOf(op, "Type", args.Type, accountTypes...); err != nil {
		return nil, err
	}
	if args.Type == "BANK" {
		if err := requireString(op, "BankAccountNumber", args.BankAccountNumber); err != nil {
			return nil, err
		}
	}
	return api.Put(ctx, accountsPath, args)
}

func updateAccount(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "accounts.update"
	args, err := decodeArgs[accountUpdate](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "AccountID", args.AccountID); err != nil {
		return nil, err
	}
	if args.Type != "" {
		if err := requireOneOf(op, "Type", args.Type, accountTypes...); err != nil {
			return nil, err
		}
	}
	return api.Post(ctx, resourcePath("Accounts", args.AccountID), envelope("Accounts", args))
}

func deleteAccount(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "accounts.delete"
	args, err := decodeArgs[accountIDArgs](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "AccountID", args.AccountID); err != nil {
		return nil, err
	}
	result, err := api.Delete(ctx, resourcePath("Accounts", args.AccountID))
	if err != nil {
		return nil, err
	}
	if result == nil {
		return map[string]any{"AccountID": args.AccountID, "Deleted": true}, nil
	}
	return result, nil
}
