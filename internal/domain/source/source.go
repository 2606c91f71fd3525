package source

// Type is a CRM record type. The set is closed: configs referencing
// anything else are rejected.
type Type string

// CRM source types.
const (
	Leads         Type = "leads"
	Contacts      Type = "contacts"
	Accounts      Type = "accounts"
	Opportunities Type = "opportunities"
	Documents     Type = "documents"
	Conversations Type = "conversations"
	Messages      Type = "messages"
	Tickets       Type = "tickets"
)

// All lists every source type in canonical order. The order is fixed so
// anything iterating it (fingerprints, listings) stays deterministic.
func All() []Type {
	return []Type{Leads, Contacts, Accounts, Opportunities, Documents, Conversations, Messages, Tickets}
}

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	switch t {
	case Leads, Contacts, Accounts, Opportunities, Documents, Conversations, Messages, Tickets:
		return true
	}
	return false
}
