package format

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestJobNumber(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	id := node.Generate()

	assert.Equal(t, "EST-2025-014", JobNumber("2025-014", id))
	assert.Equal(t, "EST-2025-014", JobNumber("  2025-014  ", id))

	fallback := JobNumber("", id)
	assert.Equal(t, "EST-"+id.String()[:8], fallback)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$108.00", Money(10800))
	assert.Equal(t, "$0.05", Money(5))
	assert.Equal(t, "$0.00", Money(0))
	assert.Equal(t, "-$1.50", Money(-150))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "8.25%", Percent(825))
	assert.Equal(t, "8%", Percent(800))
	assert.Equal(t, "0%", Percent(0))
	assert.Equal(t, "100%", Percent(10000))
}
