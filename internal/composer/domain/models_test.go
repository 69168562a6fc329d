package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddBusinessDaysSkipsWeekends(t *testing.T) {
	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, friday, AddBusinessDays(friday, 0))
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), AddBusinessDays(friday, 1))
	assert.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), AddBusinessDays(friday, 5))

	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), AddBusinessDays(saturday, 1))
}
