package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mormegil-cz/nklink/internal/authority/models"
	"github.com/mormegil-cz/nklink/pkg/platform/sentinel"
)

type BadgerStoreSuite struct {
	suite.Suite
	store *BadgerStore
	close func() error
}

func TestBadgerStoreSuite(t *testing.T) {
	suite.Run(t, new(BadgerStoreSuite))
}

func (s *BadgerStoreSuite) SetupTest() {
	db, err := OpenBadger("")
	s.Require().NoError(err)
	s.store = NewBadgerStore(db)
	s.close = db.Close
}

func (s *BadgerStoreSuite) TearDownTest() {
	s.Require().NoError(s.close())
}

func (s *BadgerStoreSuite) TestMissReturnsErrNotFound() {
	_, err := s.store.Find(context.Background(), "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *BadgerStoreSuite) TestRecordRoundTrip() {
	ctx := context.Background()
	c := newTestClient(s.store)
	id := models.AuthorityID("jn20000401234")

	c.Put(ctx, id, foundRecord())
	got, ok := c.Get(ctx, id)
	s.Require().True(ok)
	s.Equal(foundRecord(), got)
}

func (s *BadgerStoreSuite) TestTTLEviction() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "short", []byte("v"), time.Second))

	_, err := s.store.Find(ctx, "short")
	s.Require().NoError(err)

	// badger TTLs have one-second resolution
	time.Sleep(2100 * time.Millisecond)
	_, err = s.store.Find(ctx, "short")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *BadgerStoreSuite) TestHealth() {
	s.NoError(s.store.Health(context.Background()))
}
