package journal

import (
	"context"
	"time"
)

func (s *JournalSuite) TestIndexerFollowsTheChain() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	indexer := Indexer{
		Chain:        s.chain,
		Repository:   s.repository,
		PollInterval: 10 * time.Millisecond,
	}
	ready := make(chan struct{})
	result := make(chan error)
	go func() {
		result <- indexer.Start(ctx, ready)
	}()
	<-ready

	s.mint("uri-0")
	s.Eventually(func() bool {
		count, err := s.repository.CountMints(s.ctx, s.contract)
		return err == nil && count == 1
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	s.NoError(<-result)
}

func (s *JournalSuite) TestIndexerResumesFromTheStoredCursor() {
	s.mint("uri-0")
	s.sync()
	s.mint("uri-1")

	cursor, err := s.repository.CountTransactions(s.ctx)
	s.Require().NoError(err)
	indexer := Indexer{Chain: s.chain, Repository: s.repository}
	cursor, err = indexer.Sync(s.ctx, cursor)
	s.Require().NoError(err)
	s.Equal(uint64(3), cursor)

	mints, err := s.repository.FindMints(s.ctx, s.contract)
	s.Require().NoError(err)
	s.Len(mints, 2)
}
