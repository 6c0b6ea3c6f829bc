package storage

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pauljones0/pl-jobs-scraper/internal/models"
)

const collectionPrefix = "offers_"

// FirestoreStore keeps one portal's offers in its own collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreClient connects to Firestore. The client may be shared by several stores.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return client, nil
}

func NewFirestore(client *firestore.Client, portal string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collectionPrefix + portal}
}

// Load reads every offer of the collection, oldest scrape first.
func (c *FirestoreStore) Load(ctx context.Context) ([]models.Offer, error) {
	iter := c.client.Collection(c.collection).OrderBy("dateScraped", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var offers []models.Offer
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: iterate %s: %v", ErrStore, c.collection, err)
		}

		var offer models.Offer
		if err := doc.DataTo(&offer); err != nil {
			return nil, fmt.Errorf("%w: unmarshal %s/%s: %v", ErrStore, c.collection, doc.Ref.ID, err)
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// Save upserts every offer. Documents are never deleted, so earlier offers survive.
func (c *FirestoreStore) Save(ctx context.Context, offers []models.Offer) error {
	collectionRef := c.client.Collection(c.collection)
	bulkWriter := c.client.BulkWriter(ctx)

	jobs := make([]*firestore.BulkWriterJob, 0, len(offers))
	for _, offer := range offers {
		job, err := bulkWriter.Set(collectionRef.Doc(offerID(offer)), offer)
		if err != nil {
			bulkWriter.End()
			return fmt.Errorf("%w: queue %s: %v", ErrStore, offer.JobLink, err)
		}
		jobs = append(jobs, job)
	}
	bulkWriter.End()

	var errs []error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d writes to %s failed: %v", ErrStore, len(errs), len(jobs), c.collection, errors.Join(errs...))
	}
	return nil
}
