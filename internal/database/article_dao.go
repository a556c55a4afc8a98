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

// ArticleDao is a data access object for the articles of a message.
type ArticleDao interface {
	// Insert inserts a new article. A zero sort order is replaced by NextSortOrder.
	Insert(context.Context, Queryer, *models.ArticleEntity) error
	// FindByMessage returns all articles of a message ordered by their sort order.
	FindByMessage(context.Context, Queryer, int64) ([]models.ArticleEntity, error)
	// NextSortOrder returns the highest sort order of a message plus 10, or 10 for the first
	// article.
	NextSortOrder(context.Context, Queryer, int64) (int64, error)
}

type articleDao struct{}

// NewArticleDao creates a new ArticleDao.
func NewArticleDao() ArticleDao {
	return articleDao{}
}

func (a articleDao) Insert(ctx context.Context, q Queryer, article *models.ArticleEntity) error {
	if article.SortOrder == 0 {
		sortOrder, err := a.NextSortOrder(ctx, q, article.MessageID)
		if err != nil {
			return err
		}

		article.SortOrder = sortOrder
	}

	const query = `
		insert into "articles" (
			"message_id" ,
			"sort_order" ,
			"title" ,
			"text" ,
			"url" ,
			"image_url"
		) values (
			:message_id ,
			:sort_order ,
			:title ,
			:text ,
			:url ,
			:image_url
		) ;
	`

	id, err := insertNamed(ctx, q, query, article)
	if err != nil {
		return err
	}

	article.ID = id
	return nil
}

func (articleDao) FindByMessage(ctx context.Context, q Queryer, messageID int64) ([]models.ArticleEntity, error) {
	const query = `
		select *
		from "articles"
		where "message_id" = $1
		order by "sort_order" ;
	`

	var articleSlice []models.ArticleEntity

	if err := selectSlice(ctx, q, &articleSlice, query, messageID); err != nil {
		return nil, err
	}

	return articleSlice, nil
}

func (articleDao) NextSortOrder(ctx context.Context, q Queryer, messageID int64) (int64, error) {
	const query = `
		select coalesce(max("sort_order"), 0) + 10
		from "articles"
		where "message_id" = $1 ;
	`

	var sortOrder int64

	if err := selectOne(ctx, q, &sortOrder, query, messageID); err != nil {
		return 0, err
	}

	return sortOrder, nil
}
