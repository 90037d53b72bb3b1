package hospital

import (
	"fmt"
	"strings"
)

// RoomType is the kind of bed a patient is admitted to.
type RoomType int

const (
	GeneralWard RoomType = iota
	ICU
	PrivateRoom
	SemiPrivate
)

var roomTypeLabels = [...]string{
	GeneralWard: "General Ward",
	ICU:         "ICU",
	PrivateRoom: "Private Room",
	SemiPrivate: "Semi-Private",
}

var roomTypeKeys = [...]string{
	GeneralWard: "general_ward",
	ICU:         "icu",
	PrivateRoom: "private_room",
	SemiPrivate: "semi_private",
}

func (r RoomType) Valid() bool {
	return r >= GeneralWard && r <= SemiPrivate
}

// String returns the display label. Out-of-range values are a programming
// error and panic.
func (r RoomType) String() string {
	if !r.Valid() {
		panic(fmt.Sprintf("hospital: unmapped room type %d", int(r)))
	}
	return roomTypeLabels[r]
}

// Key returns the snake_case wire name.
func (r RoomType) Key() string {
	if !r.Valid() {
		panic(fmt.Sprintf("hospital: unmapped room type %d", int(r)))
	}
	return roomTypeKeys[r]
}

func (r RoomType) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, invalidf("room type %d", int(r))
	}
	return []byte(r.Key()), nil
}

func (r *RoomType) UnmarshalText(b []byte) error {
	v, err := ParseRoomType(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRoomType accepts either the wire key ("private_room") or the display
// label ("Private Room"), case-insensitively.
func ParseRoomType(s string) (RoomType, error) {
	norm := normalizeKey(s)
	for i, key := range roomTypeKeys {
		if key == norm {
			return RoomType(i), nil
		}
	}
	return 0, invalidf("unknown room type %q", s)
}

// Department is the clinical department a doctor belongs to.
type Department int

const (
	Cardiology Department = iota
	Neurology
	Orthopedics
	Pediatrics
	Emergency
	General
)

var departmentLabels = [...]string{
	Cardiology:  "Cardiology",
	Neurology:   "Neurology",
	Orthopedics: "Orthopedics",
	Pediatrics:  "Pediatrics",
	Emergency:   "Emergency",
	General:     "General",
}

func (d Department) Valid() bool {
	return d >= Cardiology && d <= General
}

// String returns the display label. Out-of-range values are a programming
// error and panic.
func (d Department) String() string {
	if !d.Valid() {
		panic(fmt.Sprintf("hospital: unmapped department %d", int(d)))
	}
	return departmentLabels[d]
}

func (d Department) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, invalidf("department %d", int(d))
	}
	return []byte(strings.ToLower(departmentLabels[d])), nil
}

func (d *Department) UnmarshalText(b []byte) error {
	v, err := ParseDepartment(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func ParseDepartment(s string) (Department, error) {
	norm := normalizeKey(s)
	for i, label := range departmentLabels {
		if strings.ToLower(label) == norm {
			return Department(i), nil
		}
	}
	return 0, invalidf("unknown department %q", s)
}

// normalizeKey folds "Semi-Private", "semi private" and "SEMI_PRIVATE" into
// "semi_private".
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
