package state

// StateHeader carries the per-height chain context persisted under KeyState.
// Height doubles as the engine's clock: every height comparison in the
// round lifecycle reads it.
type StateHeader struct {
	ChainId    string
	Height     uint64
	AccountIdx uint64
	Authority  []byte
	RootHash   []byte
	Hash       []byte
}

func (h *StateHeader) Clone() *StateHeader {
	n := &StateHeader{
		ChainId:    h.ChainId,
		Height:     h.Height,
		AccountIdx: h.AccountIdx,
	}
	n.Authority = append([]byte(nil), h.Authority...)
	n.RootHash = append([]byte(nil), h.RootHash...)
	n.Hash = append([]byte(nil), h.Hash...)
	return n
}
