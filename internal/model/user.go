package model

// User represents a person tracked by the system.
// This is a pure domain model with no database-specific dependencies or tags;
// it can be used across layers (HTTP, service, roster, repository) without
// coupling to persistence.
//
// The ID is assigned by whoever creates the record, not generated by the
// store, so a caller can address a user before the first write lands.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}
