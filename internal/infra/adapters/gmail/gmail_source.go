// Package gmail reads candidate billing emails through the Gmail API.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"subsavvy/internal/config"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/infra/logging"
)

var _ adapter.MailSource = (*Source)(nil)

const (
	userMe   = "me"
	pageSize = 100
)

// billingTerms narrows the search to messages that can carry a signal.
var billingTerms = []string{"subscription", "renewal", "renewed", "receipt", "invoice", "payment", "membership", "charged"}

type Source struct {
	oauth    *oauth2.Config
	endpoint string
	log      *zerolog.Logger
}

func NewSource(cfg config.GoogleConfig, logger *zerolog.Logger) *Source {
	return &Source{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailReadonlyScope},
		},
		log: logging.Component(logger, "gmail_source"),
	}
}

// WithEndpoint points the client at another API root.
func (s *Source) WithEndpoint(url string) *Source {
	s.endpoint = url
	return s
}

// FetchMessages lists at most max messages received after since and loads
// each one. Messages that fail to load are skipped.
func (s *Source) FetchMessages(ctx context.Context, conn *model.Connection, since time.Time, max int) ([]model.MailMessage, error) {
	srv, err := s.service(ctx, conn)
	if err != nil {
		return nil, err
	}
	log := logging.With(ctx, s.log)

	var ids []string
	call := srv.Users.Messages.List(userMe).Q(searchQuery(since))
	for len(ids) < max {
		n := max - len(ids)
		if n > pageSize {
			n = pageSize
		}
		resp, err := call.MaxResults(int64(n)).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("gmail list: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" || len(resp.Messages) == 0 {
			break
		}
		call = call.PageToken(resp.NextPageToken)
	}
	if len(ids) > max {
		ids = ids[:max]
	}

	out := make([]model.MailMessage, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg, err := srv.Users.Messages.Get(userMe, id).Format("full").Context(ctx).Do()
		if err != nil {
			log.Warn().Err(err).Str("message_id", id).Msg("skip unreadable message")
			continue
		}
		out = append(out, toMailMessage(msg))
	}
	log.Debug().Int("listed", len(ids)).Int("loaded", len(out)).Msg("gmail messages fetched")
	return out, nil
}

func (s *Source) service(ctx context.Context, conn *model.Connection) (*gmail.Service, error) {
	tok := &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		TokenType:    conn.TokenType,
		Expiry:       conn.Expiry,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	httpClient := oauth2.NewClient(ctx, s.oauth.TokenSource(ctx, tok))
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return srv, nil
}

func searchQuery(since time.Time) string {
	return fmt.Sprintf("after:%s {%s}", since.UTC().Format("2006/01/02"), strings.Join(billingTerms, " "))
}

func toMailMessage(m *gmail.Message) model.MailMessage {
	out := model.MailMessage{
		ID:         m.Id,
		Snippet:    m.Snippet,
		ReceivedAt: time.UnixMilli(m.InternalDate).UTC(),
	}
	if m.Payload == nil {
		return out
	}
	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			out.From = h.Value
		case "subject":
			out.Subject = h.Value
		}
	}
	out.Body = plainText(m.Payload)
	return out
}

// plainText returns the first text/plain body found depth first.
func plainText(p *gmail.MessagePart) string {
	if p == nil {
		return ""
	}
	if strings.HasPrefix(p.MimeType, "text/plain") && p.Body != nil && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	for _, part := range p.Parts {
		if text := plainText(part); text != "" {
			return text
		}
	}
	return ""
}

func decodeBody(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		if b, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err != nil {
			return ""
		}
	}
	return string(b)
}
