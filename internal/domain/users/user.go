// Package users holds the minimal account model the ticketing flows need:
// an id, a name, and the email address mails go to.
package users

import "errors"

var ErrNotFound = errors.New("user not found")

type User struct {
	ID    int64
	Name  string
	Email string
}
