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

// MessageDao is a data access object for messages.
type MessageDao interface {
	// Insert inserts a new message.
	Insert(context.Context, Queryer, *models.MessageEntity) error
	// Update updates an existing message.
	Update(context.Context, Queryer, *models.MessageEntity) error
	// FindByID returns the message with the given id.
	FindByID(context.Context, Queryer, int64) (*models.MessageEntity, error)
	// FindByNewsletter returns all messages of a newsletter, newest first.
	FindByNewsletter(context.Context, Queryer, int64) ([]models.MessageEntity, error)
}

type messageDao struct{}

// NewMessageDao creates a new MessageDao.
func NewMessageDao() MessageDao {
	return messageDao{}
}

func (messageDao) Insert(ctx context.Context, q Queryer, message *models.MessageEntity) error {
	const query = `
		insert into "messages" (
			"newsletter_id" ,
			"title" ,
			"slug" ,
			"created_at" ,
			"modified_at"
		) values (
			:newsletter_id ,
			:title ,
			:slug ,
			:created_at ,
			:modified_at
		) ;
	`

	id, err := insertNamed(ctx, q, query, message)
	if err != nil {
		return err
	}

	message.ID = id
	return nil
}

func (messageDao) Update(ctx context.Context, q Queryer, message *models.MessageEntity) error {
	const query = `
		update "messages"
		set "newsletter_id" = :newsletter_id ,
		    "title"         = :title ,
		    "slug"          = :slug ,
		    "modified_at"   = :modified_at
		where "id" = :id ;
	`

	return updateNamed(ctx, q, query, message)
}

func (messageDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.MessageEntity, error) {
	const query = `
		select *
		from "messages"
		where "id" = $1 ;
	`

	var message models.MessageEntity

	if err := selectOne(ctx, q, &message, query, id); err != nil {
		return nil, err
	}

	return &message, nil
}

func (messageDao) FindByNewsletter(
	ctx context.Context,
	q Queryer,
	newsletterID int64,
) ([]models.MessageEntity, error) {
	const query = `
		select *
		from "messages"
		where "newsletter_id" = $1
		order by "created_at" desc, "id" desc ;
	`

	var messageSlice []models.MessageEntity

	if err := selectSlice(ctx, q, &messageSlice, query, newsletterID); err != nil {
		return nil, err
	}

	return messageSlice, nil
}
