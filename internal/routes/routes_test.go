package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagesAndBackendPathsStayApart(t *testing.T) {
	assert.Equal(t, "/dashboard/erp/users", Users)
	assert.Equal(t, "/users?limit=10000", UserRecords.List(0))
	assert.Equal(t, "/users/5", UserRecords.Detail(5))

	assert.Equal(t, "/dashboard/erp/samples/operations", SampleOperations)
	assert.Equal(t, "/samples/operations?sample_id=12", SampleOperationsFor(12))
}

func TestResourceLimits(t *testing.T) {
	assert.Equal(t, "/samples/styles?limit=1000", StyleSummaries.List(0))
	assert.Equal(t, "/buyers?limit=25", Buyers.List(25))
	assert.Equal(t, "/samples/tna", TNA.List(0))
	assert.Equal(t, "/samples/by-sample-id/SMP%2F1", SampleBySampleID("SMP/1"))
}
