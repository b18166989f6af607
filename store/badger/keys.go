package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/kirillpolevoy/storystack-sub001/core"
)

// Key prefixes for different data types
const (
	itemPrefix       = "itmrec"
	itemStatusPrefix = "itmsts"
	itemJobPrefix    = "itmjob"
	jobPrefix        = "jobrec"
	jobTimePrefix    = "jobsub"
	vocabPrefix      = "vocrec"
)

// makeItemKey generates a key for an item record by ID.
func makeItemKey(id core.ItemID) []byte {
	return []byte(fmt.Sprintf("%s:%s", itemPrefix, id))
}

// makeItemStatusKey generates a composite key for the per-tenant status index.
// Format: prefix:tenant:status:insertedAtMicro:id
// The timestamp is written BigEndian so lexicographic iteration yields
// insertion order within one tenant/status bucket.
func makeItemStatusKey(tenant core.TenantID, status core.TagStatus, insertedAt time.Time, id core.ItemID) []byte {
	prefix := makePartialItemStatusKey(tenant, status)
	buf := make([]byte, len(prefix)+8+1+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(insertedAt.UnixMicro()))
	offset += 8
	buf[offset] = ':'
	offset++
	copy(buf[offset:], id)
	return buf
}

// makePartialItemStatusKey generates the iteration prefix for status queries.
func makePartialItemStatusKey(tenant core.TenantID, status core.TagStatus) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d:", itemStatusPrefix, tenant, status))
}

// makeItemJobKey generates a composite key for the job membership index.
// Format: prefix:jobID:itemID
func makeItemJobKey(jobID core.JobID, id core.ItemID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", itemJobPrefix, jobID, id))
}

// makePartialItemJobKey generates the iteration prefix for one job's items.
func makePartialItemJobKey(jobID core.JobID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", itemJobPrefix, jobID))
}

// makeJobKey generates a key for a job record by ID.
func makeJobKey(id core.JobID) []byte {
	return []byte(fmt.Sprintf("%s:%s", jobPrefix, id))
}

// makeJobTimeKey generates a composite key for the submission-time index.
// Format: prefix:submittedAtMicro:id, BigEndian timestamp for oldest-first
// iteration.
func makeJobTimeKey(submittedAt time.Time, id core.JobID) []byte {
	prefix := jobTimePrefix + ":"
	buf := make([]byte, len(prefix)+8+1+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(submittedAt.UnixMicro()))
	offset += 8
	buf[offset] = ':'
	offset++
	copy(buf[offset:], id)
	return buf
}

// makeVocabKey generates a key for a tenant's vocabulary record.
func makeVocabKey(tenant core.TenantID) []byte {
	return []byte(fmt.Sprintf("%s:%s", vocabPrefix, tenant))
}
