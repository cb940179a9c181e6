package models

// CredentialType describes how a credential field is exposed on read.
type CredentialType string

const (
	CredentialTypePassword CredentialType = "password"
	CredentialTypeText     CredentialType = "text"
)

// PasswordPlaceholder is sent back by editors for password fields the user
// did not change. Writing it keeps the stored value.
const PasswordPlaceholder = "__PWRD__"

// CredentialField declares one field of a node type's credentials.
type CredentialField struct {
	Type CredentialType `json:"type" yaml:"type"`
}

// IsPassword reports whether the field must never be returned in plaintext.
func (f CredentialField) IsPassword() bool {
	return f.Type == CredentialTypePassword
}

// CredentialDefinition maps credential field names to their declaration.
type CredentialDefinition map[string]CredentialField

// Credentials holds raw credential values of a single node, secrets included.
type Credentials map[string]any

// Clone returns a shallow copy of the credentials.
func (c Credentials) Clone() Credentials {
	if c == nil {
		return nil
	}

	clone := make(Credentials, len(c))
	for k, v := range c {
		clone[k] = v
	}

	return clone
}

// IsSet reports whether the field holds a value. Missing, nil and empty
// strings are all treated as not set.
func (c Credentials) IsSet(field string) bool {
	value, ok := c[field]
	if !ok || value == nil {
		return false
	}

	if s, isString := value.(string); isString {
		return s != ""
	}

	return true
}
