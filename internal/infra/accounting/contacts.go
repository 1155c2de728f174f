package accounting

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"xeromcp/internal/domain"
)

const contactsPath = "/Contacts"

type contactFields struct {
	Name          string `json:"Name,omitempty"`
	FirstName     string `json:"FirstName,omitempty"`
	LastName      string `json:"LastName,omitempty"`
	EmailAddress  string `json:"EmailAddress,omitempty"`
	ContactNumber string `json:"ContactNumber,omitempty"`
	AccountNumber string `json:"AccountNumber,omitempty"`
	TaxNumber     string `json:"TaxNumber,omitempty"`
	ContactStatus string `json:"ContactStatus,omitempty"`
}

type contactUpdate struct {
	ContactID string `json:"ContactID"`
	contactFields
}

func ContactsToolset() Toolset {
	return Toolset{
		Domain:  domain.DomainContacts,
		Summary: "Customers and suppliers",
		Actions: []Action{
			{
				Name:        "list",
				Description: "List contacts. Returns one page of up to 100 contacts, or every contact with all=true.",
				InputSchema: objectSchema(listProperties(map[string]*jsonschema.Schema{
					"searchTerm":      stringProp("Case-insensitive search across name, email and account number"),
					"includeArchived": boolProp("Include archived contacts"),
				})),
				Handler: listContacts,
			},
			{
				Name:        "get",
				Description: "Get a single contact by ContactID.",
				InputSchema: idSchema("ContactID", "Xero contact identifier"),
				Handler:     getContact,
			},
			{
				Name:        "create",
				Description: "Create a contact. Name is required.",
				InputSchema: objectSchema(contactProperties(), "Name"),
				Handler:     createContact,
			},
			{
				Name:        "update",
				Description: "Update fields of an existing contact.",
				InputSchema: objectSchema(withID("ContactID", "Xero contact identifier", contactProperties()), "ContactID"),
				Handler:     updateContact,
			},
		},
	}
}

func contactProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"Name":          stringProp("Full name of the contact or organisation"),
		"FirstName":     stringProp("First name of the primary person"),
		"LastName":      stringProp("Last name of the primary person"),
		"EmailAddress":  stringProp("Email address of the primary person"),
		"ContactNumber": stringProp("External system identifier"),
		"AccountNumber": stringProp("User-defined account number"),
		"TaxNumber":     stringProp("Tax or business number"),
		"ContactStatus": enumProp("Contact status", "ACTIVE", "ARCHIVED"),
	}
}

func withID(field, description string, props map[string]*jsonschema.Schema) map[string]*jsonschema.Schema {
	props[field] = stringProp(description)
	return props
}

func listContacts(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "contacts.list"
	args, err := decodeArgs[struct {
		listArgs
		SearchTerm      string `json:"searchTerm,omitempty"`
		IncludeArchived bool   `json:"includeArchived,omitempty"`
	}](op, raw)
	if err != nil {
		return nil, err
	}
	if err := args.validate(op); err != nil {
		return nil, err
	}
	query := args.query()
	setIfNotEmpty(query, "searchTerm", args.SearchTerm)
	if args.IncludeArchived {
		query.Set("includeArchived", "true")
	}
	return list(ctx, api, contactsPath, "Contacts", args.listArgs, query)
}

func getContact(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "contacts.get"
	args, err := decodeArgs[struct {
		ContactID string `json:"ContactID"`
	}](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "ContactID", args.ContactID); err != nil {
		return nil, err
	}
	return api.Get(ctx, resourcePath("Contacts", args.ContactID), nil)
}

func createContact(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "contacts.create"
	args, err := decodeArgs[contactFields](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "Name", args.Name); err != nil {
		return nil, err
	}
	return api.Post(ctx, contactsPath, envelope("Contacts", args))
}

func updateContact(ctx context.Context, api domain.AccountingAPI, raw json.RawMessage) (any, error) {
	const op = "contacts.update"
	args, err := decodeArgs[contactUpdate](op, raw)
	if err != nil {
		return nil, err
	}
	if err := requireString(op, "ContactID", args.ContactID); err != nil {
		return nil, err
	}
	return api.Post(ctx, resourcePath("Contacts", args.ContactID), envelope("Contacts", args))
}
