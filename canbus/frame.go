package canbus

import "time"

// Frame is one received or transmitted CAN frame, decoded enough for the
// rest of the pipeline to work with (spec.md §3 RawRecord input).
type Frame struct {
	Time      time.Time
	Interface string
	Header    Header
	Data      [8]byte
	Length    uint8
}
