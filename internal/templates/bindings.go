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

package templates

import (
	"time"

	"github.com/lukasdietrich/rundbrief/internal/models"
)

// Bindings is the variables available inside templates.
type Bindings map[string]any

// NewBindings creates the bindings shared by all emails of a newsletter.
func NewBindings(site Site, newsletter *models.NewsletterEntity, subscriber *models.Subscriber) Bindings {
	return Bindings{
		"site": map[string]any{
			"name":   site.Name,
			"domain": site.Domain,
			"scheme": site.Scheme,
			"url":    site.URL(),
		},
		"newsletter": map[string]any{
			"title":           newsletter.Title,
			"slug":            newsletter.Slug,
			"email":           newsletter.Email,
			"sender":          newsletter.Sender,
			"unsubscribe_url": site.UnsubscribeURL(newsletter.Slug),
		},
		"subscription": map[string]any{
			"id":              subscriber.ID,
			"name":            subscriber.DisplayName(),
			"email":           subscriber.EmailAddress(),
			"recipient":       subscriber.Recipient(),
			"activation_code": subscriber.ActivationCode,
			"subscribed":      subscriber.Subscribed,
			"unsubscribed":    subscriber.Unsubscribed,
		},
		"date": time.Now().Format(time.RFC1123Z),
	}
}

// WithActivation adds the url confirming the action of an activation email.
func (b Bindings) WithActivation(site Site, newsletter *models.NewsletterEntity, action models.Action, code string) Bindings {
	b["action"] = string(action)
	b["activation_url"] = site.ActivationURL(newsletter.Slug, string(action), code)
	return b
}

// WithMessage adds the message of a submission and replaces the date with its publish date.
func (b Bindings) WithMessage(
	submission *models.SubmissionEntity,
	message *models.MessageEntity,
	articles []models.ArticleEntity,
) Bindings {
	articleSlice := make([]map[string]any, len(articles))
	for i, article := range articles {
		articleSlice[i] = map[string]any{
			"title":     article.Title,
			"text":      article.Text,
			"url":       article.URL.String,
			"image_url": article.ImageURL.String,
		}
	}

	b["submission"] = map[string]any{
		"id":           submission.ID,
		"publish":      submission.Publish,
		"publish_date": submission.PublishTime().Format(time.RFC1123Z),
	}
	b["message"] = map[string]any{
		"id":    message.ID,
		"title": message.Title,
		"slug":  message.Slug,
	}
	b["articles"] = articleSlice
	b["date"] = submission.PublishTime().Format("2006-01-02")

	return b
}
