// Package idwrap wraps ULIDs used as workflow revision identifiers.
package idwrap

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

type IDWrap struct {
	ulid ulid.ULID
}

func New(u ulid.ULID) IDWrap {
	return IDWrap{ulid: u}
}

// NewNow returns a fresh, monotonically sortable id.
func NewNow() IDWrap {
	return IDWrap{ulid: ulid.Make()}
}

func NewText(s string) (IDWrap, error) {
	u, err := ulid.Parse(s)
	if err != nil {
		return IDWrap{}, fmt.Errorf("invalid revision id %q: %w", s, err)
	}
	return IDWrap{ulid: u}, nil
}

func NewTextMust(s string) IDWrap {
	id, err := NewText(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (u IDWrap) String() string {
	return u.ulid.String()
}

func (u IDWrap) IsZero() bool {
	return u.ulid == ulid.ULID{}
}

func (u IDWrap) Compare(id IDWrap) int {
	return u.ulid.Compare(id.ulid)
}

// Time is the creation time encoded in the id.
func (u IDWrap) Time() time.Time {
	return ulid.Time(u.ulid.Time())
}

// Value stores the id as its 26-character text form.
func (u IDWrap) Value() (driver.Value, error) {
	return u.ulid.String(), nil
}

func (u *IDWrap) Scan(value any) error {
	switch v := value.(type) {
	case string:
		return u.ulid.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == len(u.ulid) {
			return u.ulid.UnmarshalBinary(v)
		}
		return u.ulid.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into IDWrap", value)
	}
}

func (u IDWrap) MarshalText() ([]byte, error) {
	return u.ulid.MarshalText()
}

func (u *IDWrap) UnmarshalText(data []byte) error {
	return u.ulid.UnmarshalText(data)
}
