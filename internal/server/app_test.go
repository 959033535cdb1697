package server

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCAddr = "127.0.0.1:0"
	c.DatabaseURL = "memory://"
	c.TokenSecret = "secret"
	c.AdminUsername = "admin"
	c.AdminPassword = "admin-pw"
	c.BcryptCost = bcrypt.MinCost
	return c
}

func TestNewApp_BootstrapsAdmin(t *testing.T) {
	ctx := context.Background()

	app, err := NewApp(ctx, testConfig(), logging.Nop{})
	require.NoError(t, err)
	defer app.dir.Close()

	u, err := app.userService.Login(ctx, "admin", "admin-pw")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

func TestNewApp_Errors(t *testing.T) {
	ctx := context.Background()

	c := testConfig()
	c.DatabaseURL = "mongodb://localhost"
	_, err := NewApp(ctx, c, logging.Nop{})
	assert.Error(t, err)

	c = testConfig()
	c.TokenAlgorithm = "RS256"
	_, err = NewApp(ctx, c, logging.Nop{})
	assert.Error(t, err)

	c = testConfig()
	c.AdminPassword = ""
	_, err = NewApp(ctx, c, logging.Nop{})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRun_StopsOnCancelAndClosesDirectory(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(), logging.Nop{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}

	assert.ErrorIs(t, app.dir.Ping(context.Background()), common.ErrStoreUnavailable)
}

func TestRun_ListenerFailureStopsEverything(t *testing.T) {
	c := testConfig()
	c.HTTPAddr = "127.0.0.1:99999"

	app, err := NewApp(context.Background(), c, logging.Nop{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestGinMode(t *testing.T) {
	assert.Equal(t, gin.DebugMode, GinMode("debug"))
	assert.Equal(t, gin.ReleaseMode, GinMode("info"))
	assert.Equal(t, gin.ReleaseMode, GinMode("error"))
}
