// Package canbus handles 29-bit J1939/RV-C arbitration ids and raw
// SocketCAN frame I/O. The id math is grounded on the teacher's
// nmea.CanBusHeader.Uint32/ParseCANID; the socket plumbing is grounded on
// socketcan.Connection.
package canbus

// AddressGlobal is the broadcast destination address (0xFF), used for
// PDU2-format DGNs which have no addressed destination field.
const AddressGlobal = 0xFF

// Header holds the J1939 arbitration fields RV-C layers on top of (spec.md
// §4.6): priority, the 18-bit DGN/PGN, source address and, for PDU1-format
// DGNs, a destination address.
type Header struct {
	Priority    uint8
	DGN         uint32
	Source      uint8
	Destination uint8
}

// CanID packs a Header into the 29-bit arbitration id RV-C puts on the wire,
// following the PDU1/PDU2 split from spec.md §4.6: PDU1 (PF < 240) carries a
// destination address in bits 8-15 and the DGN's low byte is masked out of
// the id; PDU2 (PF >= 240) is a pure broadcast, and bits 8-15 instead carry
// the DGN's own low byte (the "PS" field becomes part of the PGN).
func (h Header) CanID() uint32 {
	id := uint32(h.Source) // bits 0-7

	dgn := h.DGN
	pf := uint8(dgn >> 8)
	if pf < 240 {
		id |= uint32(h.Destination) << 8 // bits 8-15
		dgn &^= 0xFF                     // PDU1: the DGN's low byte is not part of the id
	}
	id |= dgn << 8
	id |= uint32(h.Priority&0x7) << 26
	return id
}

// ParseCanID recovers a Header from a 29-bit arbitration id.
func ParseCanID(canID uint32) Header {
	h := Header{
		Priority: uint8((canID >> 26) & 0x7),
		Source:   uint8(canID),
	}
	ps := uint8(canID >> 8)
	pduFormat := uint8(canID >> 16)
	rAndDP := uint8(canID>>24) & 3
	dgn := (uint32(rAndDP) << 16) + uint32(pduFormat)<<8

	if pduFormat < 240 {
		h.Destination = ps
		h.DGN = dgn
	} else {
		h.Destination = AddressGlobal
		h.DGN = dgn + uint32(ps)
	}
	return h
}
