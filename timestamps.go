package firesnapshot

import "time"

// Stored names of the server-assigned timestamp fields.
const (
	CreateTimeField = "_createTime"
	UpdateTimeField = "_updateTime"
)

// HasTimestamps marks data types whose documents carry server-assigned
// create and update times.
type HasTimestamps interface {
	TracksTimestamps()
}

// Timestamps is embedded by data types that opt into timestamp tracking.
// The store fills both fields; callers should treat them as read-only.
type Timestamps struct {
	CreateTime time.Time `firestore:"_createTime,serverTimestamp" json:"-"`
	UpdateTime time.Time `firestore:"_updateTime,serverTimestamp" json:"-"`
}

func (Timestamps) TracksTimestamps() {}

// clearForWrite zeroes the fields the server must assign on this write.
func (t *Timestamps) clearForWrite(create bool) {
	t.UpdateTime = time.Time{}
	if create {
		t.CreateTime = time.Time{}
	}
}

type timestampClearer interface {
	clearForWrite(create bool)
}

// WriteValue returns a copy of s.Data ready to be written. For types embedding
// Timestamps the update time is cleared, and the create time as well when
// create is set, so the serverTimestamp tags take effect. s is not modified.
func WriteValue[D any](s *Snapshot[D], create bool) D {
	data := s.Data
	if ts, ok := any(&data).(timestampClearer); ok {
		ts.clearForWrite(create)
	}
	return data
}

func tracksTimestamps[D any](data D) bool {
	_, ok := any(data).(HasTimestamps)
	return ok
}

func timestampOf(fields map[string]interface{}, name string) *time.Time {
	t, ok := fields[name].(time.Time)
	if !ok {
		return nil
	}
	return &t
}
