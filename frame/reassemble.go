package frame

// Reassemble rebuilds a Frame from the FieldRecords a Parser emitted
// for one packet. It is not required by the wire protocol itself; it
// exists so record consumers (tests, export, a future replay command)
// don't each re-learn the field layout that Parser already knows.
// TSS/FSS/BSS/FES records are ignored.
func Reassemble(records []FieldRecord) Frame {
	var f Frame
	var payload []byte
	for _, r := range records {
		switch r.Kind {
		case KindFlags:
			v := r.Data1
			f.PayloadPreamble = v&0x8 != 0
			f.NullFrame = v&0x4 != 0
			f.SyncFrame = v&0x2 != 0
			f.StartupFrame = v&0x1 != 0
		case KindFrameID:
			f.FrameID = uint16(r.Data1)
		case KindPayloadLength:
			f.PayloadLength = uint8(r.Data1)
		case KindHeaderCRC:
			f.HeaderCRC = uint16(r.Data1)
		case KindCycleCount:
			f.CycleCount = uint8(r.Data1)
		case KindDataByte:
			idx := int(r.Data2)
			for len(payload) <= idx {
				payload = append(payload, 0)
			}
			payload[idx] = byte(r.Data1)
		case KindFrameCRC:
			f.FrameCRC = r.Data1
		}
	}
	f.Payload = payload
	return f
}
