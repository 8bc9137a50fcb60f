package db

import (
	"context"
	"time"
)

// TokenProvider issues short-lived passwords for IAM database logins.
// TokenBasedConnector asks for a token each time the pool dials a new
// physical connection.
type TokenProvider interface {
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logs without exposing credentials.
	String() string
}

// AzurePostgreSQLScope is the Entra ID scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"
