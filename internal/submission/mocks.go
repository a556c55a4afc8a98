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

package submission

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lukasdietrich/rundbrief/internal/models"
)

// MockEngine is a mock implementation of Engine.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) SubmitQueue(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockEngine) Submit(ctx context.Context, submission *models.SubmissionEntity) error {
	return m.Called(ctx, submission).Error(0)
}

func (m *MockEngine) SendMessage(
	ctx context.Context,
	submission *models.SubmissionEntity,
	subscriber *models.Subscriber,
) error {
	return m.Called(ctx, submission, subscriber).Error(0)
}

func (m *MockEngine) FromMessage(
	ctx context.Context,
	message *models.MessageEntity,
	publishDate time.Time,
) (*models.SubmissionEntity, error) {
	args := m.Called(ctx, message, publishDate)
	submission, _ := args.Get(0).(*models.SubmissionEntity)
	return submission, args.Error(1)
}

func (m *MockEngine) Prepare(ctx context.Context, id int64) (*models.SubmissionEntity, error) {
	args := m.Called(ctx, id)
	submission, _ := args.Get(0).(*models.SubmissionEntity)
	return submission, args.Error(1)
}

func (m *MockEngine) Save(ctx context.Context, submission *models.SubmissionEntity) error {
	return m.Called(ctx, submission).Error(0)
}
