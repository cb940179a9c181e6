package registry

import "github.com/dukex/flowadmin/pkg/models"

var (
	password = models.CredentialField{Type: models.CredentialTypePassword}
	text     = models.CredentialField{Type: models.CredentialTypeText}
)

// RegisterDefaults declares credentials for the core node types.
func (r *Registry) RegisterDefaults() {
	r.RegisterCredentials("http request", models.CredentialDefinition{
		"user":     text,
		"password": password,
	})
	r.RegisterCredentials("mqtt-broker", models.CredentialDefinition{
		"user":     text,
		"password": password,
	})
	r.RegisterCredentials("websocket-client", models.CredentialDefinition{
		"user":     text,
		"password": password,
	})
	r.RegisterCredentials("tls-config", models.CredentialDefinition{
		"certdata":   text,
		"keydata":    password,
		"cadata":     text,
		"passphrase": password,
	})
	r.RegisterCredentials("e-mail", models.CredentialDefinition{
		"userid":   text,
		"password": password,
	})
}
