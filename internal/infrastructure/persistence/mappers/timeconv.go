package mappers

import "time"

func millisToTime(millis int64) time.Time {
	return time.UnixMilli(millis).UTC()
}

func millisPtrToTime(millis *int64) *time.Time {
	if millis == nil {
		return nil
	}
	t := millisToTime(*millis)
	return &t
}

func timePtrToMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
