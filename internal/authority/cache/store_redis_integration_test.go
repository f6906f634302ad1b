//go:build integration

package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mormegil-cz/nklink/internal/authority/cache"
	"github.com/mormegil-cz/nklink/internal/authority/models"
	"github.com/mormegil-cz/nklink/pkg/platform/sentinel"
	"github.com/mormegil-cz/nklink/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *cache.RedisStore
	cache *cache.Client
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = cache.NewRedisStore(s.redis.Client)
	s.cache = cache.New(s.store, "nklink-test:", cache.TTLPolicy{Found: 24 * time.Hour, Empty: 30 * time.Minute},
		cache.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRecordRoundTrip() {
	ctx := context.Background()
	id := models.AuthorityID("jn19990210040")
	rec := &models.Record{
		Label:       "Redis Author",
		Description: "test",
		Links: models.Links{
			models.DatabaseWikidata: {{Ident: "Q1", URL: "https://www.wikidata.org/wiki/Q1"}},
			models.DatabaseORCID: {
				{Ident: "0000-0002-1825-0097", URL: "https://orcid.org/0000-0002-1825-0097"},
			},
		},
	}

	s.cache.Put(ctx, id, rec)

	found, ok := s.cache.Get(ctx, id)
	s.Require().True(ok)
	s.Equal(rec, found)
}

func (s *RedisStoreSuite) TestKeyCarriesPrefixAndTTL() {
	ctx := context.Background()
	id := models.AuthorityID("jn00000000001")

	s.cache.Put(ctx, id, models.Absent())

	ttl, err := s.redis.Client.TTL(ctx, "nklink-test:jn00000000001").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 29*time.Minute)
	s.LessOrEqual(ttl, 30*time.Minute)
}

func (s *RedisStoreSuite) TestMissReturnsErrNotFound() {
	_, err := s.store.Find(context.Background(), "nklink-test:missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestTTLEviction() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "nklink-test:short", []byte("{}"), 50*time.Millisecond))

	time.Sleep(90 * time.Millisecond)

	_, err := s.store.Find(ctx, "nklink-test:short")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
