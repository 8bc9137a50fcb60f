package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/budgetbuddy/internal/gateway"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

type closingConnector struct {
	closes int
}

func (c *closingConnector) Connect(context.Context, budgetbuddy.PoolHooks) (budgetbuddy.Pool, error) {
	return nil, errors.New("not used")
}

func (c *closingConnector) Close() error {
	c.closes++
	return nil
}

func TestGatewayHandleClose_ClosesConnectorOnce(t *testing.T) {
	connector := &closingConnector{}
	h := &gatewayHandle{
		Gateway: gateway.New(connector, gateway.WithLogger(discardLogger())),
		logger:  discardLogger(),
	}

	h.close(context.Background())

	assert.Equal(t, 1, connector.closes)
}
