package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		OrderID string `json:"order_id"`
		Total   int64  `json:"total_cents"`
	}

	raw := MustMarshal(payload{OrderID: "o1", Total: 4200})
	got, err := UnwrapPayload[payload](raw)
	require.NoError(t, err)
	assert.Equal(t, "o1", got.OrderID)
	assert.Equal(t, int64(4200), got.Total)

	_, err = UnwrapPayload[payload]([]byte("not json"))
	require.Error(t, err)
}
