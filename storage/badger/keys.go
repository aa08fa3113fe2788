package badger

import (
	"fmt"

	"github.com/poiesic/itemforge/core"
)

// Key prefixes for different data types
const (
	itemPrefix          = "examitm"
	itemStatusPrefix    = "examitmst"
	itemTopicPrefix     = "examitmtp"
	batchCheckpointSlot = "genbatch"
)

// makeItemKey generates a key for an exam item by id.
func makeItemKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", itemPrefix, id))
}

// makeStatusKey generates a composite key for the status index.
// Format: prefix:status:id
func makeStatusKey(status core.ReviewStatus, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", itemStatusPrefix, status, id))
}

// makePartialStatusKey generates a prefix for scanning one status.
func makePartialStatusKey(status core.ReviewStatus) []byte {
	return []byte(fmt.Sprintf("%s:%s:", itemStatusPrefix, status))
}

// makeTopicKey generates a composite key for the topic index.
// Format: prefix:topic:id
func makeTopicKey(topic, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", itemTopicPrefix, topic, id))
}

// makePartialTopicKey generates a prefix for scanning one topic.
func makePartialTopicKey(topic string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", itemTopicPrefix, topic))
}

// makeCheckpointKey generates a key for a batch checkpoint.
func makeCheckpointKey(batchID string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt:%s", batchCheckpointSlot, batchID))
}
