package style

import "strings"

// Set is a compact set of style ids.
type Set uint64

func NewSet(ids ...ID) Set {
	var s Set
	return s.With(ids...)
}

func (s Set) Has(id ID) bool {
	return id.Valid() && s&(1<<uint(id)) != 0
}

func (s Set) With(ids ...ID) Set {
	for _, id := range ids {
		if id.Valid() {
			s |= 1 << uint(id)
		}
	}
	return s
}

func (s Set) Without(ids ...ID) Set {
	for _, id := range ids {
		if id.Valid() {
			s &^= 1 << uint(id)
		}
	}
	return s
}

func (s Set) Union(o Set) Set {
	return s | o
}

func (s Set) Empty() bool {
	return s == 0
}

// IDs lists members in declaration order.
func (s Set) IDs() []ID {
	var ids []ID
	for id := range Count {
		if s.Has(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range s.IDs() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(id.String())
	}
	b.WriteByte(']')
	return b.String()
}
