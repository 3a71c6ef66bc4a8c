package gmail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
)

// topsenders only lists messages, reads two headers and flips the UNREAD
// label, so gmail.modify is the narrowest scope that covers it. No client
// credentials ship with the binary; they come from [gmail] in the config
// file or from GMAIL_CLIENT_ID / GMAIL_CLIENT_SECRET.
var oauthConfig = &oauth2.Config{
	Scopes:   []string{gmailapi.GmailModifyScope},
	Endpoint: google.Endpoint,
}

// SetCredentials sets the OAuth client ID and secret.
func SetCredentials(clientID, clientSecret string) {
	oauthConfig.ClientID = clientID
	oauthConfig.ClientSecret = clientSecret
}

// HasCredentials reports whether OAuth credentials have been configured.
func HasCredentials() bool {
	return oauthConfig.ClientID != "" && oauthConfig.ClientSecret != ""
}

// EnsureCredentials returns a setup hint when no credentials were configured.
func EnsureCredentials() error {
	if HasCredentials() {
		return nil
	}
	return fmt.Errorf("gmail OAuth credentials not configured; set them in ~/.config/topsenders/config.toml under [gmail] or via GMAIL_CLIENT_ID / GMAIL_CLIENT_SECRET env vars")
}

// loopbackReceiver collects the authorization code from Google's redirect to
// 127.0.0.1. Only the first callback carrying the expected state counts.
type loopbackReceiver struct {
	state string
	codes chan string
	errs  chan error
}

func newLoopbackReceiver() (*loopbackReceiver, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return &loopbackReceiver{
		state: hex.EncodeToString(b),
		codes: make(chan string, 1),
		errs:  make(chan error, 1),
	}, nil
}

func (l *loopbackReceiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("state") != l.state:
		http.Error(w, "Unexpected authorization response.", http.StatusBadRequest)
		return
	case q.Get("code") == "":
		l.fail(fmt.Errorf("authorization denied: %s", q.Get("error")))
		fmt.Fprint(w, "topsenders was not authorized. You can close this tab.")
		return
	}
	select {
	case l.codes <- q.Get("code"):
	default:
	}
	fmt.Fprint(w, "topsenders is authorized. You can close this tab.")
}

func (l *loopbackReceiver) fail(err error) {
	select {
	case l.errs <- err:
	default:
	}
}

// authenticate runs the installed-app flow. The consent URL is always
// printed and also handed to open when it is non-nil.
func authenticate(ctx context.Context, open func(string) error) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	recv, err := newLoopbackReceiver()
	if err != nil {
		listener.Close()
		return nil, err
	}

	// A copy keeps the redirect out of the shared config used for refresh.
	cfg := *oauthConfig
	cfg.RedirectURL = fmt.Sprintf("http://%s", listener.Addr())

	server := &http.Server{Handler: recv}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			recv.fail(fmt.Errorf("callback server stopped: %w", err))
		}
	}()
	defer server.Shutdown(context.Background())

	url := cfg.AuthCodeURL(recv.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("\nOpen this URL in your browser to authorize topsenders:\n\n  %s\n\nWaiting for authorization...\n", url)
	if open != nil {
		_ = open(url)
	}

	select {
	case code := <-recv.codes:
		token, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange auth code: %w", err)
		}
		return token, nil
	case err := <-recv.errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
