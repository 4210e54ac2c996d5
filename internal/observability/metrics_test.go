package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEnroll(t *testing.T) {
	before := testutil.ToFloat64(enrollmentOutcomes.WithLabelValues("success"))
	RecordEnroll("success")
	assert.Equal(t, before+1, testutil.ToFloat64(enrollmentOutcomes.WithLabelValues("success")))
}

func TestRecordNotificationDropped(t *testing.T) {
	before := testutil.ToFloat64(notificationsDropped.WithLabelValues("queue_full"))
	RecordNotificationDropped("queue_full")
	assert.Equal(t, before+1, testutil.ToFloat64(notificationsDropped.WithLabelValues("queue_full")))
}
