package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewHTTPClientTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, NewHTTPClient(5*time.Second).Timeout)
	assert.Equal(t, defaultUpstreamTimeout, NewHTTPClient(0).Timeout)
}
