package provider

import "context"

// MaxPageSize is the largest page the store will return for one listing call.
const MaxPageSize = 500

// Header names read from message metadata.
const (
	HeaderFrom            = "From"
	HeaderListUnsubscribe = "List-Unsubscribe"
)

// Page is one listing response.
type Page struct {
	IDs           []string
	NextPageToken string
}

// MailStore is the narrow remote store surface the pipeline consumes.
type MailStore interface {
	// ListMessages returns one page of message ids matching query. An empty
	// pageToken requests the first page.
	ListMessages(ctx context.Context, query, pageToken string, pageSize int) (Page, error)

	// GetMessageHeaders fetches only the named headers for a message. Keys
	// use canonical MIME form; absent headers are absent from the map.
	GetMessageHeaders(ctx context.Context, id string, names []string) (map[string]string, error)

	// BatchMutateLabels adds and removes labels on every id in one atomic call.
	BatchMutateLabels(ctx context.Context, ids []string, add, remove []string) error
}
