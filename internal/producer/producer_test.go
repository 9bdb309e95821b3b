package producer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openlob/matchcore/internal/domain"
	"github.com/openlob/matchcore/internal/envelope"
)

type captureSender struct {
	lines [][]byte
}

func (c *captureSender) Send(ctx context.Context, line []byte) error {
	c.lines = append(c.lines, line)
	return nil
}

func TestReplayInto_FlagsEnvelopesAsReplay(t *testing.T) {
	p := &Producer{logger: zap.NewNop()}
	now := time.Now()
	orders := []*domain.Order{
		{OrderID: 1, UserID: 1, Price: 100, Quantity: 1, Side: domain.SideBuy, Type: domain.OrderTypeLimit, Status: domain.StatusMatching, CreateTime: domain.NewWireTime(now), UpdateTime: domain.NewWireTime(now)},
	}
	sender := &captureSender{}

	err := p.ReplayInto(context.Background(), sender, orders)
	require.NoError(t, err)
	require.Len(t, sender.lines, 1)

	env, err := envelope.Decode(sender.lines[0])
	require.NoError(t, err)
	assert.True(t, env.IsReplay)
	assert.Equal(t, uint32(1), env.Order.OrderID)
}

func TestNextOrder_StaysWithinConfiguredRanges(t *testing.T) {
	p := New(nil, zap.NewNop(), GenerationConfig{MinPrice: 90, MaxPrice: 110, MinQty: 1, MaxQty: 2, FeeRate: 0.001}, 42)

	for i := 0; i < 50; i++ {
		o := p.nextOrder()
		assert.GreaterOrEqual(t, o.Price, 90.0)
		assert.LessOrEqual(t, o.Price, 110.0)
		assert.GreaterOrEqual(t, o.Quantity, 1.0)
		assert.LessOrEqual(t, o.Quantity, 2.0)
		require.NoError(t, o.Validate())
	}
}

func TestNextOrder_IDsAreMonotonicallyIncreasing(t *testing.T) {
	p := New(nil, zap.NewNop(), DefaultGenerationConfig, 7)
	p.nextID = 10

	a := p.nextOrder()
	b := p.nextOrder()
	assert.Equal(t, uint32(11), a.OrderID)
	assert.Equal(t, uint32(12), b.OrderID)
}
