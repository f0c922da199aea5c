// Package aztables stores records in an Azure Storage table: one entity per
// record, PartitionKey = owner, RowKey = record name, JSON in the Value property.
package aztables

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/julianstephens/recur/internal/azure"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/storage"
)

// maxValueBytes is the Table service limit for a single string property.
const maxValueBytes = 64 * 1024

type Store struct {
	client *aztables.Client
	table  string
}

type entity struct {
	PartitionKey string
	RowKey       string
	Value        string
}

// New connects to the table service at serviceURL and creates table if needed.
func New(ctx context.Context, serviceURL, table string) (*Store, error) {
	var svc *aztables.ServiceClient

	if azure.IsLocal(serviceURL) {
		logger.Debug("Using Azurite credentials for table store", "url", serviceURL)
		cred, err := aztables.NewSharedKeyCredential(azure.AzuriteAccountName, azure.AzuriteAccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		svc, err = aztables.NewServiceClientWithSharedKey(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client with shared key: %w", err)
		}
	} else {
		cred, err := azure.DefaultCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		svc, err = aztables.NewServiceClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client: %w", err)
		}
	}

	if _, err := svc.CreateTable(ctx, table, nil); err != nil {
		var azErr *azcore.ResponseError
		if !errors.As(err, &azErr) || azErr.ErrorCode != "TableAlreadyExists" {
			return nil, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	return &Store{client: svc.NewClient(table), table: table}, nil
}

// rowKey maps a record name onto the characters RowKey allows ('/' is reserved).
func rowKey(name string) string {
	return strings.ReplaceAll(name, "/", ":")
}

func recordName(rowKey string) string {
	return strings.ReplaceAll(rowKey, ":", "/")
}

func (s *Store) Load(ctx context.Context, key storage.Key) ([]byte, error) {
	resp, err := s.client.GetEntity(ctx, key.Owner, rowKey(key.Name), nil)
	if err != nil {
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) && azErr.StatusCode == http.StatusNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	var e entity
	if err := json.Unmarshal(resp.Value, &e); err != nil {
		return nil, fmt.Errorf("failed to decode entity %s: %w", key, err)
	}
	return []byte(e.Value), nil
}

func (s *Store) Save(ctx context.Context, key storage.Key, value []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if strings.Contains(key.Name, ":") {
		return fmt.Errorf("record name %q may not contain ':' in a table store", key.Name)
	}
	if len(value) > maxValueBytes {
		return fmt.Errorf("record %s is %d bytes, table properties hold at most %d", key, len(value), maxValueBytes)
	}

	body, err := json.Marshal(entity{
		PartitionKey: key.Owner,
		RowKey:       rowKey(key.Name),
		Value:        string(value),
	})
	if err != nil {
		return err
	}
	if _, err := s.client.UpsertEntity(ctx, body, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace}); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, owner string) ([]string, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s'", strings.ReplaceAll(owner, "'", "''"))
	selectFields := "RowKey"
	pager := s.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
		Select: &selectFields,
	})

	var names []string
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list entities: %w", err)
		}
		for _, raw := range resp.Entities {
			var e entity
			if err := json.Unmarshal(raw, &e); err != nil {
				continue
			}
			names = append(names, recordName(e.RowKey))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() error {
	return nil
}
