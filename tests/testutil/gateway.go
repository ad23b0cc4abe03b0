package testutil

import (
	"testing"

	sqlitegw "github.com/nhle/taskboard/internal/gateway/sqlite"
	"github.com/nhle/taskboard/internal/realtime"
)

// NewTestGateway creates an in-memory SQLite gateway with all
// migrations applied and an attached broker, so tests get the full
// store-plus-push-channel pair. The gateway is closed automatically
// when the test completes.
func NewTestGateway(t *testing.T) (*sqlitegw.Gateway, *realtime.Broker) {
	t.Helper()

	broker := realtime.NewBroker()
	gw, err := sqlitegw.New(":memory:", broker)
	if err != nil {
		t.Fatalf("creating test gateway: %v", err)
	}

	t.Cleanup(func() {
		if err := gw.Close(); err != nil {
			t.Errorf("closing test gateway: %v", err)
		}
	})

	return gw, broker
}
