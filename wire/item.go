package wire

// Item is the recursive wire tree the codec understands: a byte string
// leaf or an ordered sequence of items. Treat items as immutable once
// produced; Decode always returns freshly allocated trees.
type Item interface {
	item()
}

// Bytes is a byte string leaf.
type Bytes []byte

// List is an ordered sequence of items.
type List []Item

func (Bytes) item() {}
func (List) item()  {}
