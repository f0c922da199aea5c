// Package azure holds the credential selection shared by the Table and Queue
// clients: Azurite's well-known shared key for local endpoints, the default
// Azure credential chain otherwise.
package azure

import (
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/julianstephens/recur/internal/logger"
)

const (
	// Standard Azurite account name and key
	AzuriteAccountName = "devstoreaccount1"
	AzuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// IsLocal reports whether serviceURL points at an emulator (plain http).
func IsLocal(serviceURL string) bool {
	return strings.HasPrefix(serviceURL, "http://")
}

// DefaultCredential returns the default Azure credential chain
func DefaultCredential() (azcore.TokenCredential, error) {
	logger.Debug("Using default Azure credentials")
	return azidentity.NewDefaultAzureCredential(nil)
}
