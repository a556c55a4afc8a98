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

package database

import (
	"context"

	"github.com/lukasdietrich/rundbrief/internal/models"
)

// NewsletterDao is a data access object for all newsletter related queries.
type NewsletterDao interface {
	// Insert inserts a new newsletter.
	Insert(context.Context, Queryer, *models.NewsletterEntity) error
	// Update updates an existing newsletter.
	Update(context.Context, Queryer, *models.NewsletterEntity) error
	// FindAll returns all newsletters.
	FindAll(context.Context, Queryer) ([]models.NewsletterEntity, error)
	// FindByID returns the newsletter with the given id.
	FindByID(context.Context, Queryer, int64) (*models.NewsletterEntity, error)
	// FindBySlug returns the newsletter with the given slug.
	FindBySlug(context.Context, Queryer, string) (*models.NewsletterEntity, error)
}

type newsletterDao struct{}

// NewNewsletterDao creates a new NewsletterDao.
func NewNewsletterDao() NewsletterDao {
	return newsletterDao{}
}

func (newsletterDao) Insert(ctx context.Context, q Queryer, newsletter *models.NewsletterEntity) error {
	const query = `
		insert into "newsletters" (
			"title" ,
			"slug" ,
			"email" ,
			"sender" ,
			"visible" ,
			"send_html"
		) values (
			:title ,
			:slug ,
			:email ,
			:sender ,
			:visible ,
			:send_html
		) ;
	`

	id, err := insertNamed(ctx, q, query, newsletter)
	if err != nil {
		return err
	}

	newsletter.ID = id
	return nil
}

func (newsletterDao) Update(ctx context.Context, q Queryer, newsletter *models.NewsletterEntity) error {
	const query = `
		update "newsletters"
		set "title"     = :title ,
		    "slug"      = :slug ,
		    "email"     = :email ,
		    "sender"    = :sender ,
		    "visible"   = :visible ,
		    "send_html" = :send_html
		where "id" = :id ;
	`

	return updateNamed(ctx, q, query, newsletter)
}

func (newsletterDao) FindAll(ctx context.Context, q Queryer) ([]models.NewsletterEntity, error) {
	const query = `
		select *
		from "newsletters"
		order by "id" ;
	`

	var newsletterSlice []models.NewsletterEntity

	if err := selectSlice(ctx, q, &newsletterSlice, query); err != nil {
		return nil, err
	}

	return newsletterSlice, nil
}

func (newsletterDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.NewsletterEntity, error) {
	const query = `
		select *
		from "newsletters"
		where "id" = $1 ;
	`

	var newsletter models.NewsletterEntity

	if err := selectOne(ctx, q, &newsletter, query, id); err != nil {
		return nil, err
	}

	return &newsletter, nil
}

func (newsletterDao) FindBySlug(ctx context.Context, q Queryer, slug string) (*models.NewsletterEntity, error) {
	const query = `
		select *
		from "newsletters"
		where "slug" = $1 ;
	`

	var newsletter models.NewsletterEntity

	if err := selectOne(ctx, q, &newsletter, query, slug); err != nil {
		return nil, err
	}

	return &newsletter, nil
}
