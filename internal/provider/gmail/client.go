package gmail

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/topsenders/internal/provider"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const userID = "me"

// TokenStore persists the OAuth token between runs.
type TokenStore interface {
	SaveToken(token *oauth2.Token) error
	LoadToken() (*oauth2.Token, error)
}

// Provider implements provider.MailStore for Gmail.
type Provider struct {
	tokenStore TokenStore
	service    *gmailapi.Service
}

// New creates a Gmail provider whose service is built lazily from the stored token.
func New(tokenStore TokenStore) *Provider {
	return &Provider{tokenStore: tokenStore}
}

// NewWithService wraps an already constructed Gmail service.
func NewWithService(svc *gmailapi.Service) *Provider {
	return &Provider{service: svc}
}

// Authenticate runs the OAuth2 flow, saves the token, and initializes the Gmail service.
func (p *Provider) Authenticate(ctx context.Context, open func(string) error) error {
	token, err := authenticate(ctx, open)
	if err != nil {
		return fmt.Errorf("failed to authenticate gmail: %w", err)
	}

	if err := p.tokenStore.SaveToken(token); err != nil {
		return fmt.Errorf("failed to save gmail token: %w", err)
	}

	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return fmt.Errorf("failed to create gmail service: %w", err)
	}
	p.service = srv
	return nil
}

// initService loads the token from the token store and creates the Gmail service.
func (p *Provider) initService(ctx context.Context) error {
	if p.tokenStore == nil {
		return fmt.Errorf("no token store configured")
	}
	token, err := p.tokenStore.LoadToken()
	if err != nil {
		return fmt.Errorf("failed to load gmail token (run 'topsenders auth login' first): %w", err)
	}

	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return fmt.Errorf("failed to create gmail service: %w", err)
	}
	p.service = srv
	return nil
}

// ensureService lazily initializes the Gmail service if not already done.
func (p *Provider) ensureService(ctx context.Context) error {
	if p.service != nil {
		return nil
	}
	return p.initService(ctx)
}

// ListMessages returns one page of message ids matching query.
func (p *Provider) ListMessages(ctx context.Context, query, pageToken string, pageSize int) (provider.Page, error) {
	if err := p.ensureService(ctx); err != nil {
		return provider.Page{}, fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	call := p.service.Users.Messages.List(userID)
	if pageSize > 0 {
		call = call.MaxResults(int64(min(pageSize, provider.MaxPageSize)))
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	if query != "" {
		call = call.Q(query)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return provider.Page{}, fmt.Errorf("failed to list gmail messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return provider.Page{IDs: ids, NextPageToken: resp.NextPageToken}, nil
}

// GetMessageHeaders fetches message metadata restricted to the named headers.
func (p *Provider) GetMessageHeaders(ctx context.Context, id string, names []string) (map[string]string, error) {
	if err := p.ensureService(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	msg, err := p.service.Users.Messages.Get(userID, id).
		Format("metadata").
		MetadataHeaders(names...).
		Fields("id", "payload/headers").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get gmail message %s: %w", id, err)
	}

	var headers []*gmailapi.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}
	return pickHeaders(headers, names), nil
}

// BatchMutateLabels modifies labels on up to 1000 messages in one call.
func (p *Provider) BatchMutateLabels(ctx context.Context, ids []string, add, remove []string) error {
	if err := p.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	req := &gmailapi.BatchModifyMessagesRequest{
		Ids:            ids,
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}
	if err := p.service.Users.Messages.BatchModify(userID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to batch modify %d gmail messages: %w", len(ids), err)
	}
	return nil
}

// GetProfile returns the authenticated user's email address.
func (p *Provider) GetProfile(ctx context.Context) (string, error) {
	if err := p.ensureService(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	profile, err := p.service.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get gmail profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// Compile-time interface compliance check.
var _ provider.MailStore = (*Provider)(nil)
