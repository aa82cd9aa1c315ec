// ABOUTME: Depth-limited depth-first crawl of a workspace page tree into raw text units
// ABOUTME: Uses an explicit frame stack; a failed page or database is skipped, never fatal
package crawler

import (
	"context"
	"errors"
	"strings"

	"github.com/harper/notion-rag/internal/logging"
	"github.com/harper/notion-rag/internal/metrics"
	"github.com/harper/notion-rag/internal/models"
	"go.uber.org/zap"
)

// Workspace is the read surface the crawler needs from the workspace API
type Workspace interface {
	ListChildren(ctx context.Context, pageID string) ([]models.Block, error)
	QueryDatabase(ctx context.Context, databaseID string) ([]models.Row, error)
}

// Result is the outcome of one crawl
type Result struct {
	Units     []models.RawUnit
	Skipped   []*models.CrawlFetchError
	Pages     int
	Databases int
}

// Crawler walks page trees from a set of roots
type Crawler struct {
	ws         Workspace
	depthLimit int
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// New creates a crawler. A negative depthLimit is treated as 0 (roots only).
func New(ws Workspace, depthLimit int, logger *zap.Logger, m *metrics.Metrics) *Crawler {
	if depthLimit < 0 {
		depthLimit = 0
	}
	return &Crawler{
		ws:         ws,
		depthLimit: depthLimit,
		logger:     logging.OrNop(logger).With(zap.String("component", "crawler")),
		metrics:    m,
	}
}

// frame is one page being walked: its fetched children and the next one to visit
type frame struct {
	pageID string
	depth  int
	blocks []models.Block
	next   int
}

// Crawl visits every root at depth 0 in the given order. Units come out in
// the same order a recursive depth-first walk would produce them, with
// siblings in listing order. The only returned error is context cancellation.
func (c *Crawler) Crawl(ctx context.Context, roots []string) (*Result, error) {
	result := &Result{}

	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}

		var stack []frame
		if err := c.enter(ctx, &stack, result, root, 0); err != nil {
			return nil, err
		}

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			top := &stack[len(stack)-1]
			if top.next >= len(top.blocks) {
				stack = stack[:len(stack)-1]
				continue
			}

			block := top.blocks[top.next]
			top.next++
			pageID, depth := top.pageID, top.depth

			switch {
			case block.Type.IsContent():
				text := strings.TrimSpace(block.Text)
				if text != "" {
					result.Units = append(result.Units, models.RawUnit{
						Text:   text,
						Source: models.NewSourceReference(pageID, block.ID),
					})
				}

			case block.Type == models.BlockChildPage:
				if depth+1 > c.depthLimit {
					c.logger.Debug("depth limit reached, not descending",
						zap.String("page_id", block.ID),
						zap.Int("depth", depth+1))
					continue
				}
				if err := c.enter(ctx, &stack, result, block.ID, depth+1); err != nil {
					return nil, err
				}

			case block.Type == models.BlockChildDatabase:
				if err := c.database(ctx, result, pageID, block.ID); err != nil {
					return nil, err
				}
			}
		}
	}

	c.logger.Info("crawl finished",
		zap.Int("units", len(result.Units)),
		zap.Int("pages", result.Pages),
		zap.Int("databases", result.Databases),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

// enter fetches a page's children and pushes its frame. Fetch failures are
// recorded on the result and leave the stack unchanged.
func (c *Crawler) enter(ctx context.Context, stack *[]frame, result *Result, pageID string, depth int) error {
	c.logger.Debug("crawling page", zap.String("page_id", pageID), zap.Int("depth", depth))

	blocks, err := c.ws.ListChildren(ctx, pageID)
	if err != nil {
		if ctxErr := cancelled(ctx, err); ctxErr != nil {
			return ctxErr
		}
		c.skip(result, pageID, models.OpListChildren, err)
		return nil
	}

	result.Pages++
	*stack = append(*stack, frame{pageID: pageID, depth: depth, blocks: blocks})
	return nil
}

// database turns every row into one summary unit attributed to the containing page
func (c *Crawler) database(ctx context.Context, result *Result, pageID, databaseID string) error {
	rows, err := c.ws.QueryDatabase(ctx, databaseID)
	if err != nil {
		if ctxErr := cancelled(ctx, err); ctxErr != nil {
			return ctxErr
		}
		c.skip(result, databaseID, models.OpQueryDatabase, err)
		return nil
	}

	result.Databases++
	for _, row := range rows {
		result.Units = append(result.Units, models.RawUnit{
			Text:   row.Summary(),
			Source: models.NewSourceReference(pageID, row.ID),
		})
	}
	return nil
}

func (c *Crawler) skip(result *Result, id, op string, err error) {
	fetchErr := &models.CrawlFetchError{PageID: id, Op: op, Err: err}
	result.Skipped = append(result.Skipped, fetchErr)
	c.metrics.IncCrawlSkip(op)
	c.logger.Warn("skipping subtree", zap.String("id", id), zap.String("op", op), zap.Error(err))
}

func cancelled(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ctx.Err()
	}
	return nil
}
