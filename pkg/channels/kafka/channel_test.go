package kafka

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))
}

func TestCreatePublisher_NoBrokers(t *testing.T) {
	_, err := CreatePublisher(watermill.NopLogger{}, nil)
	assert.ErrorIs(t, err, ErrNoBrokers)
}
