package consumer

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectingConsumer struct {
	mutex    sync.Mutex
	payloads []string
}

func (c *collectingConsumer) Consume(batch rmq.Deliveries) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, delivery := range batch {
		c.payloads = append(c.payloads, delivery.Payload())
		delivery.Ack()
	}
}

func (c *collectingConsumer) received() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return append([]string(nil), c.payloads...)
}

func openConnection(t *testing.T) (rmq.Connection, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	connection, err := rmq.OpenConnectionWithRedisClient("consumer-test", client, nil)
	require.NoError(t, err)
	t.Cleanup(func() { <-connection.StopAllConsuming() })

	return connection, server
}

func TestRedisConsumerDeliversBatches(t *testing.T) {
	connection, _ := openConnection(t)
	collector := &collectingConsumer{}

	redisConsumer := RedisConsumer{
		Connection:      connection,
		QueueName:       "tracking-events",
		NumberConsumers: 1,
		BatchSize:       5,
		Timeout:         50 * time.Millisecond,
		Consumer:        collector,
	}
	require.NoError(t, redisConsumer.Setup())

	queue, err := connection.OpenQueue("tracking-events")
	require.NoError(t, err)
	require.NoError(t, queue.Publish("one", "two"))

	assert.Eventually(t, func() bool {
		return len(collector.received()) == 2
	}, 5*time.Second, 20*time.Millisecond)
	assert.ElementsMatch(t, []string{"one", "two"}, collector.received())
}

func TestHealthHandler(t *testing.T) {
	connection, server := openConnection(t)

	recorder := httptest.NewRecorder()
	NewHealthHandler(connection).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "OK", recorder.Body.String())

	server.Close()

	recorder = httptest.NewRecorder()
	NewHealthHandler(connection).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
