// Package identity normalizes provider profiles into a single subject string.
package identity

import (
	"strconv"
	"strings"
)

// Unknown is the subject used when a profile carries no usable identifier.
const Unknown = "unknown"

// Identity is the provider-neutral view of a user profile. Provider decoders
// fill whatever fields their payload carries and leave the rest empty.
type Identity struct {
	Email     string
	Login     string
	Name      string
	Subject   string
	NumericID *uint64
}

// Resolve picks the subject for a bearer token. The order is fixed:
// email, login, name, subject, numeric id, then Unknown.
func Resolve(id Identity) string {
	for _, v := range []string{id.Email, id.Login, id.Name, id.Subject} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	if id.NumericID != nil {
		return strconv.FormatUint(*id.NumericID, 10)
	}
	return Unknown
}
