package gmail

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/rmoran/apptrack/internal/models"
)

// DefaultQuery targets the application-confirmation emails the importer
// understands.
const DefaultQuery = `subject:"application received" OR subject:"application confirmation" OR subject:"thank you for applying"`

// Client wraps the gmail.Service and provides the mailbox scan used by the
// sync importer.
type Client struct {
	Service  *gmail.Service
	patterns *Patterns
}

// NewClient creates a new Gmail client with the default extraction patterns.
func NewClient(service *gmail.Service) *Client {
	return &Client{Service: service, patterns: DefaultPatterns()}
}

// NewClientWithPatterns creates a client using custom extraction patterns.
func NewClientWithPatterns(service *gmail.Service, patterns *Patterns) *Client {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &Client{Service: service, patterns: patterns}
}

// FetchCandidates scans the mailbox for application-confirmation emails and
// extracts candidate application records. Candidates carry the originating
// message id in EmailID and no record identity; identity is assigned when
// the reconciler accepts them. Messages where no company can be extracted
// are dropped. Any listing or fetch failure aborts the whole scan; callers
// must not treat a partial result as a successful sync.
func (c *Client) FetchCandidates(ctx context.Context, query string, maxResults int64) ([]models.Application, error) {
	if query == "" {
		query = DefaultQuery
	}
	user := "me"
	call := c.Service.Users.Messages.List(user).Q(query)
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}

	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	candidates := make([]models.Application, 0, len(res.Messages))
	for _, m := range res.Messages {
		msg, err := c.Service.Users.Messages.Get(user, m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", m.Id, err)
		}
		if cand, ok := c.candidateFromMessage(msg); ok {
			candidates = append(candidates, cand)
		}
	}
	return candidates, nil
}

// candidateFromMessage turns a fetched message into a candidate record.
// Returns false when the extraction heuristics find no company name.
func (c *Client) candidateFromMessage(msg *gmail.Message) (models.Application, bool) {
	subject := extractHeader(msg, "Subject")
	body := ExtractPlainText(msg)
	if body == "" {
		body = HTMLToText(ExtractHTML(msg))
	}

	extracted := c.patterns.Extract(subject, body)
	if extracted.Company == "" {
		return models.Application{}, false
	}

	position := extracted.Position
	if position == "" {
		position = "Position Not Found"
	}

	return models.Application{
		Company:    extracted.Company,
		Position:   position,
		AppliedAt:  extractDate(msg),
		Status:     models.StatusApplied,
		Source:     models.SourceGmail,
		EmailID:    msg.Id,
		Confidence: extracted.Confidence,
	}, true
}

func extractHeader(msg *gmail.Message, name string) string {
	if msg.Payload == nil || msg.Payload.Headers == nil {
		return ""
	}

	for _, header := range msg.Payload.Headers {
		if header.Name == name {
			return header.Value
		}
	}

	return ""
}

func extractDate(msg *gmail.Message) time.Time {
	dateStr := extractHeader(msg, "Date")
	if dateStr == "" {
		return time.Now()
	}

	// Try to parse the date
	if t, err := time.Parse(time.RFC1123Z, dateStr); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC1123, dateStr); err == nil {
		return t
	}

	return time.Now()
}
