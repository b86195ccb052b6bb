package executor

import (
	"context"
	"testing"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynobench/internal/bench"
)

func TestRangeQueryBothBounds(t *testing.T) {
	cond, names, values := rangeQuery(bench.QuerySpec{
		PartitionKey:   "pk",
		PartitionValue: "user-1",
		SortKey:        "ts",
		SortStart:      "2024-01-01",
		SortEnd:        "2024-12-31",
	})

	assert.Equal(t, "#pk = :pk AND #sk BETWEEN :start AND :end", cond)
	assert.Equal(t, map[string]string{"#pk": "pk", "#sk": "ts"}, names)

	pk, ok := values[":pk"].(*ddbtypes.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "user-1", pk.Value)
	assert.Contains(t, values, ":start")
	assert.Contains(t, values, ":end")
}

func TestRangeQueryOneSided(t *testing.T) {
	cond, _, values := rangeQuery(bench.QuerySpec{
		PartitionKey: "pk", PartitionValue: "u", SortKey: "ts", SortStart: "a",
	})
	assert.Equal(t, "#pk = :pk AND #sk >= :start", cond)
	assert.NotContains(t, values, ":end")

	cond, _, values = rangeQuery(bench.QuerySpec{
		PartitionKey: "pk", PartitionValue: "u", SortKey: "ts", SortEnd: "z",
	})
	assert.Equal(t, "#pk = :pk AND #sk <= :end", cond)
	assert.NotContains(t, values, ":start")
}

func TestRangeQueryPartitionOnly(t *testing.T) {
	cond, names, _ := rangeQuery(bench.QuerySpec{
		PartitionKey: "pk", PartitionValue: "u",
	})
	assert.Equal(t, "#pk = :pk", cond)
	assert.NotContains(t, names, "#sk")
}

func TestClassifyThrottle(t *testing.T) {
	err := classify(&ddbtypes.ProvisionedThroughputExceededException{})
	assert.Equal(t, bench.KindThrottled, bench.KindOf(err))
}

func TestClassifyDeadline(t *testing.T) {
	err := classify(errors.Wrap(context.DeadlineExceeded, "query"))
	assert.Equal(t, bench.KindTimeout, bench.KindOf(err))
}

func TestClassifyResourceNotFound(t *testing.T) {
	err := classify(&ddbtypes.ResourceNotFoundException{})
	assert.Equal(t, bench.KindInvalidRequest, bench.KindOf(err))
}

func TestClassifyUnknown(t *testing.T) {
	err := classify(errors.New("mystery"))
	assert.Equal(t, bench.KindOther, bench.KindOf(err))
}
