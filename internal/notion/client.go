// ABOUTME: Notion API adapter that lists page children and queries embedded databases
// ABOUTME: Follows pagination cursors and rate-limits every request with a token bucket
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/harper/notion-rag/internal/logging"
	"github.com/harper/notion-rag/internal/models"
	"github.com/jomei/notionapi"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults applied to zero Options fields
const (
	DefaultRequestsPerSecond = 3.0
	DefaultBurst             = 3
	DefaultPageSize          = 100
)

// Database property names summarized for each row
const (
	PropName     = "Name"
	PropRole     = "Role"
	PropTags     = "Tags"
	PropLocation = "Location"
)

// Options configures the adapter
type Options struct {
	RequestsPerSecond float64
	Burst             int
	PageSize          int
	HTTPClient        *http.Client
}

// Client wraps notionapi.Client
type Client struct {
	api      *notionapi.Client
	limiter  *rate.Limiter
	pageSize int
	logger   *zap.Logger
}

// NewClient creates an adapter authenticated with an integration token
func NewClient(token string, opts Options, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("notion token is required")
	}

	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	if opts.PageSize <= 0 || opts.PageSize > DefaultPageSize {
		opts.PageSize = DefaultPageSize
	}

	var clientOpts []notionapi.ClientOption
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, notionapi.WithHTTPClient(opts.HTTPClient))
	}

	return &Client{
		api:      notionapi.NewClient(notionapi.Token(token), clientOpts...),
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		pageSize: opts.PageSize,
		logger:   logging.OrNop(logger).With(zap.String("component", "notion")),
	}, nil
}

// ListChildren returns every immediate child block of a page in listing order
func (c *Client) ListChildren(ctx context.Context, pageID string) ([]models.Block, error) {
	var blocks []models.Block
	var cursor string

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(pageID), &notionapi.Pagination{
			StartCursor: notionapi.Cursor(cursor),
			PageSize:    c.pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("listing children of %s: %w", pageID, err)
		}

		for _, b := range resp.Results {
			blocks = append(blocks, blockFromAPI(b))
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = string(resp.NextCursor)
	}

	c.logger.Debug("listed children", zap.String("page_id", pageID), zap.Int("blocks", len(blocks)))
	return blocks, nil
}

// QueryDatabase returns every row of a database
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) ([]models.Row, error) {
	var rows []models.Row
	var cursor notionapi.Cursor

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    c.pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("querying database %s: %w", databaseID, err)
		}

		for _, page := range resp.Results {
			rows = append(rows, rowFromPage(page))
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	c.logger.Debug("queried database", zap.String("database_id", databaseID), zap.Int("rows", len(rows)))
	return rows, nil
}

func blockFromAPI(b notionapi.Block) models.Block {
	block := models.Block{ID: b.GetID().String(), Type: models.BlockOther}

	switch v := b.(type) {
	case *notionapi.ParagraphBlock:
		block.Type = models.BlockParagraph
		block.Text = plainText(v.Paragraph.RichText)
	case *notionapi.Heading1Block:
		block.Type = models.BlockHeading
		block.Text = plainText(v.Heading1.RichText)
	case *notionapi.Heading2Block:
		block.Type = models.BlockHeading
		block.Text = plainText(v.Heading2.RichText)
	case *notionapi.Heading3Block:
		block.Type = models.BlockHeading
		block.Text = plainText(v.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		block.Type = models.BlockListItem
		block.Text = plainText(v.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		block.Type = models.BlockListItem
		block.Text = plainText(v.NumberedListItem.RichText)
	case *notionapi.ChildPageBlock:
		block.Type = models.BlockChildPage
	case *notionapi.ChildDatabaseBlock:
		block.Type = models.BlockChildDatabase
	}

	return block
}

func rowFromPage(page notionapi.Page) models.Row {
	return models.Row{
		ID:       page.ID.String(),
		Name:     propertyText(page.Properties[PropName]),
		Role:     propertyText(page.Properties[PropRole]),
		Tags:     propertyTags(page.Properties[PropTags]),
		Location: propertyText(page.Properties[PropLocation]),
	}
}

// propertyText reads rich_text or title properties; other kinds read as empty
func propertyText(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.RichTextProperty:
		return plainText(v.RichText)
	case *notionapi.TitleProperty:
		return plainText(v.Title)
	}
	return ""
}

func propertyTags(p notionapi.Property) []string {
	v, ok := p.(*notionapi.MultiSelectProperty)
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(v.MultiSelect))
	for _, opt := range v.MultiSelect {
		tags = append(tags, opt.Name)
	}
	return tags
}

func plainText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}
