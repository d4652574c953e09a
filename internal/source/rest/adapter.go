package rest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/source"
)

// maxPages stops pagination against a backend that never ends it.
const maxPages = 1000

// Adapter reads collections through the document backend REST API.
type Adapter struct {
	client   *Client
	pageSize int
}

var (
	_ source.Lister    = (*Adapter)(nil)
	_ source.Identity  = (*Adapter)(nil)
	_ source.Validator = (*Adapter)(nil)
)

// NewAdapter creates a REST reader. pageSize defaults to 200.
func NewAdapter(client *Client, pageSize int) *Adapter {
	if pageSize < 1 {
		pageSize = 200
	}
	return &Adapter{client: client, pageSize: pageSize}
}

// ValidateConnection verifies credentials by calling GET /v1/auth/me.
// Returns the user's display name on success.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	var me Me
	if err := a.client.Get(ctx, "/v1/auth/me", &me); err != nil {
		return "", fmt.Errorf("validating backend connection: %w", err)
	}
	if me.DisplayName != "" {
		return me.DisplayName, nil
	}
	return me.Email, nil
}

// DisplayName returns the signed-in user's display name.
func (a *Adapter) DisplayName(ctx context.Context) (string, error) {
	var me Me
	if err := a.client.Get(ctx, "/v1/auth/me", &me); err != nil {
		return "", fmt.Errorf("fetching current user: %w", err)
	}
	return me.DisplayName, nil
}

// ListAll follows nextPageToken until the collection is exhausted.
func (a *Adapter) ListAll(
	ctx context.Context,
	collection model.Collection,
) ([]model.Document, error) {
	if !source.KnownCollection(collection) {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownCollection, collection)
	}

	var docs []model.Document
	token := ""
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(a.pageSize))
		if token != "" {
			q.Set("pageToken", token)
		}
		path := fmt.Sprintf("/v1/collections/%s/documents?%s",
			url.PathEscape(string(collection)), q.Encode())

		var resp DocumentsPage
		if err := a.client.Get(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("listing %s: %w", collection, err)
		}

		for _, raw := range resp.Documents {
			docs = append(docs, toDocument(raw))
		}

		if resp.NextPageToken == "" || resp.NextPageToken == token {
			return docs, nil
		}
		token = resp.NextPageToken
	}

	return nil, fmt.Errorf("listing %s: more than %d pages", collection, maxPages)
}

// toDocument flattens a stored document, putting its id under "id".
func toDocument(raw RawDocument) model.Document {
	doc := make(model.Document, len(raw.Fields)+1)
	for k, v := range raw.Fields {
		doc[k] = v
	}
	doc["id"] = raw.ID
	return doc
}
