// Package models defines the persisted entities of the marketplace.
package models

// User is a registered account. Online, IP and Port together form the
// presence record: they are set by login and cleared by logout, and are the
// only session state the server keeps.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	UserName     string
	PasswordHash string
	Online       bool
	IP           *string
	Port         *int
}
