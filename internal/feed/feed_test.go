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

package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/rundbrief/internal/database"
	"github.com/lukasdietrich/rundbrief/internal/models"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Project Blog</title>
		<link>https://blog.example.com/</link>
		<item>
			<title>Release 2.0</title>
			<link>https://blog.example.com/release-2</link>
			<description>&lt;p&gt;The &lt;b&gt;second&lt;/b&gt; release.&lt;/p&gt;</description>
			<enclosure url="https://blog.example.com/release-2.png" length="1" type="image/png" />
		</item>
		<item>
			<title>Release 1.0</title>
			<link>https://blog.example.com/release-1</link>
			<description>First release.</description>
		</item>
		<item>
			<title>Hello World</title>
			<description>Hello.</description>
		</item>
	</channel>
</rss>`

func TestImporterTestSuite(t *testing.T) {
	suite.Run(t, new(ImporterTestSuite))
}

type ImporterTestSuite struct {
	suite.Suite

	server     *httptest.Server
	conn       *database.MockConn
	tx         *database.MockTx
	messageDao *database.MockMessageDao
	articleDao *database.MockArticleDao

	importer   Importer
	newsletter models.NewsletterEntity
}

func (s *ImporterTestSuite) SetupTest() {
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed.xml" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFeed))
	}))

	s.conn = new(database.MockConn)
	s.tx = new(database.MockTx)
	s.messageDao = new(database.MockMessageDao)
	s.articleDao = new(database.MockArticleDao)

	s.importer = NewImporter(s.conn, s.messageDao, s.articleDao)
	s.newsletter = models.NewsletterEntity{ID: 3, Slug: "weekly"}
}

func (s *ImporterTestSuite) TearDownTest() {
	s.server.Close()

	mock.AssertExpectationsForObjects(s.T(),
		s.conn,
		s.tx,
		s.messageDao,
		s.articleDao)
}

func (s *ImporterTestSuite) TestImport_ok() {
	var articles []models.ArticleEntity

	s.conn.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("Rollback").Return(nil)
	s.tx.On("Commit").Return(nil)
	s.messageDao.
		On("Insert", mock.Anything, s.tx, mock.AnythingOfType("*models.MessageEntity")).
		Run(func(args mock.Arguments) {
			args.Get(2).(*models.MessageEntity).ID = 7
		}).
		Return(nil)
	s.articleDao.
		On("Insert", mock.Anything, s.tx, mock.AnythingOfType("*models.ArticleEntity")).
		Run(func(args mock.Arguments) {
			articles = append(articles, *args.Get(2).(*models.ArticleEntity))
		}).
		Return(nil)

	message, err := s.importer.Import(context.TODO(), &s.newsletter, s.server.URL+"/feed.xml", 2)
	s.Require().NoError(err)

	s.Assert().EqualValues(7, message.ID)
	s.Assert().EqualValues(3, message.NewsletterID)
	s.Assert().Equal("Project Blog", message.Title)
	s.Assert().Regexp(`^project-blog-\d{4}-\d{2}-\d{2}-\d{6}$`, message.Slug)

	s.Require().Len(articles, 2)

	s.Assert().EqualValues(7, articles[0].MessageID)
	s.Assert().Equal("Release 2.0", articles[0].Title)
	s.Assert().Equal("The second release.", articles[0].Text)
	s.Assert().Equal("https://blog.example.com/release-2", articles[0].URL.String)
	s.Assert().Equal("https://blog.example.com/release-2.png", articles[0].ImageURL.String)

	s.Assert().Equal("Release 1.0", articles[1].Title)
	s.Assert().False(articles[1].ImageURL.Valid)
}

func (s *ImporterTestSuite) TestImport_fetchError() {
	_, err := s.importer.Import(context.TODO(), &s.newsletter, s.server.URL+"/missing.xml", 2)
	s.Assert().Error(err)
}

func (s *ImporterTestSuite) TestImport_articleError() {
	s.conn.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("Rollback").Return(nil)
	s.messageDao.On("Insert", mock.Anything, s.tx, mock.Anything).Return(nil)
	s.articleDao.On("Insert", mock.Anything, s.tx, mock.Anything).Return(errors.New("err1")).Once()

	_, err := s.importer.Import(context.TODO(), &s.newsletter, s.server.URL+"/feed.xml", 0)
	s.Assert().EqualError(err, "err1")
}
