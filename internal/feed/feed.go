// Copyright (C) 2020  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package feed imports the newest entries of an rss or atom feed as a new message.
package feed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/wire"
	"github.com/k3a/html2text"
	"github.com/mmcdole/gofeed"

	"github.com/lukasdietrich/rundbrief/internal/database"
	"github.com/lukasdietrich/rundbrief/internal/log"
	"github.com/lukasdietrich/rundbrief/internal/models"
)

// WireSet contains the providers of this package.
var WireSet = wire.NewSet(NewImporter)

// Importer creates messages from feeds.
type Importer interface {
	// Import fetches the feed and stores its newest limit items as articles of a new message of
	// the newsletter.
	Import(ctx context.Context, newsletter *models.NewsletterEntity, url string, limit int) (*models.MessageEntity, error)
}

type importer struct {
	conn       database.Conn
	messageDao database.MessageDao
	articleDao database.ArticleDao
	parser     *gofeed.Parser
}

// NewImporter creates a new Importer.
func NewImporter(
	conn database.Conn,
	messageDao database.MessageDao,
	articleDao database.ArticleDao,
) Importer {
	return &importer{
		conn:       conn,
		messageDao: messageDao,
		articleDao: articleDao,
		parser:     gofeed.NewParser(),
	}
}

func (i *importer) Import(
	ctx context.Context,
	newsletter *models.NewsletterEntity,
	url string,
	limit int,
) (*models.MessageEntity, error) {
	log.InfoContext(ctx).
		Str("url", url).
		Int("limit", limit).
		Msg("importing feed")

	feed, err := i.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch feed %q: %w", url, err)
	}

	now := time.Now()
	message := models.MessageEntity{
		NewsletterID: newsletter.ID,
		Title:        strings.TrimSpace(feed.Title),
		Slug:         models.Slugify(feed.Title + " " + now.Format("2006-01-02 150405")),
		CreatedAt:    now.Unix(),
		ModifiedAt:   now.Unix(),
	}

	tx, err := i.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	if err := i.messageDao.Insert(ctx, tx, &message); err != nil {
		return nil, err
	}

	for _, item := range newestItems(feed.Items, limit) {
		article := articleFromItem(message.ID, item)

		if err := i.articleDao.Insert(ctx, tx, &article); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &message, nil
}

func newestItems(items []*gofeed.Item, limit int) []*gofeed.Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}

	return items
}

func articleFromItem(messageID int64, item *gofeed.Item) models.ArticleEntity {
	body := item.Description
	if body == "" {
		body = item.Content
	}

	article := models.ArticleEntity{
		MessageID: messageID,
		Title:     strings.TrimSpace(item.Title),
		Text:      strings.TrimSpace(html2text.HTML2Text(body)),
		URL:       nullString(item.Link),
	}

	if item.Image != nil {
		article.ImageURL = nullString(item.Image.URL)
	} else {
		for _, enclosure := range item.Enclosures {
			if strings.HasPrefix(enclosure.Type, "image/") {
				article.ImageURL = nullString(enclosure.URL)
				break
			}
		}
	}

	return article
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
