package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"github.com/julianstephens/recur/internal/azure"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/models"
)

// PlanMessage is the queue message body. A consumer must drop everything it
// scheduled for Owner before applying Notifications.
type PlanMessage struct {
	Owner         string                `json:"owner"`
	GeneratedAt   time.Time             `json:"generated_at"`
	Notifications []models.Notification `json:"notifications"`
}

type enqueuer interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// Queue hands each plan to a remote push worker through an Azure Storage queue.
type Queue struct {
	client enqueuer
	owner  string
	now    func() time.Time
}

// NewQueue connects to queueName on the queue service at serviceURL and
// creates the queue when missing.
func NewQueue(ctx context.Context, serviceURL, queueName, owner string) (*Queue, error) {
	var svc *azqueue.ServiceClient
	if azure.IsLocal(serviceURL) {
		logger.Debug("Using Azurite credentials for queue", "url", serviceURL)
		cred, err := azqueue.NewSharedKeyCredential(azure.AzuriteAccountName, azure.AzuriteAccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		svc, err = azqueue.NewServiceClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client with shared key: %w", err)
		}
	} else {
		cred, err := azure.DefaultCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		svc, err = azqueue.NewServiceClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client: %w", err)
		}
	}

	client := svc.NewQueueClient(queueName)
	if _, err := client.Create(ctx, nil); err != nil {
		var azErr *azcore.ResponseError
		if !errors.As(err, &azErr) || azErr.ErrorCode != "QueueAlreadyExists" {
			return nil, fmt.Errorf("failed to create queue %s: %w", queueName, err)
		}
	}
	return &Queue{client: client, owner: owner, now: time.Now}, nil
}

// Replace enqueues the full plan as one base64-encoded JSON message.
func (q *Queue) Replace(ctx context.Context, plan []models.Notification) error {
	if plan == nil {
		plan = []models.Notification{}
	}
	data, err := json.Marshal(PlanMessage{Owner: q.owner, GeneratedAt: q.now().UTC(), Notifications: plan})
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	if _, err := q.client.EnqueueMessage(ctx, encoded, nil); err != nil {
		return fmt.Errorf("failed to enqueue plan: %w", err)
	}
	logger.Info("Enqueued plan", "owner", q.owner, "count", len(plan))
	return nil
}
