//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type DriverSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	options   Options
}

func TestDriverSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(DriverSuite))
}

func (s *DriverSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	// The connection string looks like redis://host:port
	connection, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	parsed, err := goredis.ParseURL(connection)
	s.Require().NoError(err)
	s.options = Options{
		Address:   parsed.Addr,
		KeyPrefix: "metaview:",
	}
}

func (s *DriverSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *DriverSuite) SetupTest() {
	driver := s.open()
	defer driver.Close()
	s.Require().NoError(driver.client.FlushAll(context.Background()).Err())
}

func (s *DriverSuite) open() *Driver {
	driver := New(s.options)
	s.Require().NoError(driver.Initialize(context.Background()))
	return driver
}

func (s *DriverSuite) TestGetMissingCell() {
	driver := s.open()
	defer driver.Close()

	value, ok, err := driver.Cells().Get(context.Background(), "idTokenState")
	s.Require().NoError(err)
	s.False(ok)
	s.Empty(value)
}

func (s *DriverSuite) TestSetOverwritesUnderPrefix() {
	ctx := context.Background()
	driver := s.open()
	defer driver.Close()

	s.Require().NoError(driver.Cells().Set(ctx, "idTokenState", "abc.def.ghi"))
	s.Require().NoError(driver.Cells().Set(ctx, "idTokenState", "jkl.mno.pqr"))

	value, ok, err := driver.Cells().Get(ctx, "idTokenState")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("jkl.mno.pqr", value)

	raw, err := driver.client.Get(ctx, "metaview:idTokenState").Result()
	s.Require().NoError(err)
	s.Equal("jkl.mno.pqr", raw)

	ttl, err := driver.client.TTL(ctx, "metaview:idTokenState").Result()
	s.Require().NoError(err)
	s.Equal(time.Duration(-1), ttl)
}

func (s *DriverSuite) TestSurvivesReopen() {
	ctx := context.Background()
	first := s.open()
	s.Require().NoError(first.Cells().Set(ctx, "idTokenState", "abc.def.ghi"))
	first.Close()

	second := s.open()
	defer second.Close()

	value, ok, err := second.Cells().Get(ctx, "idTokenState")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("abc.def.ghi", value)
}
